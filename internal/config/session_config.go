package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionStore() string {
	return GetEnv("SESSION_STORE", SessionStoreFile)
}

func (Session) GetSessionFile() string {
	if file := GetEnv("SESSION_FILE", ""); file != "" {
		return file
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".fnbconsole", "session.json")
	}
	return filepath.Join(home, ".fnbconsole", "session.json")
}

func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "127.0.0.1:6379")
}

func (Session) GetRedisKey() string {
	return GetEnv("REDIS_KEY", "fnbconsole:session")
}

// GetSessionTTL bounds how long a mirrored session survives in Redis. Zero keeps it forever.
func (Session) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 7*24*time.Hour)
}
