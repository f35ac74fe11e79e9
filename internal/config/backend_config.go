package config

import (
	"fmt"
	"strings"
	"time"
)

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetPort() string {
	return toAddr(GetEnv("PORT", "8000"))
}

func (Backend) GetFnBPort() string {
	return toAddr(GetEnv("FNB_PORT", "8001"))
}

func (Backend) GetSigningSecret() string {
	return GetEnv("SIGNING_SECRET", "dev-signing-secret")
}

func (Backend) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_EXPIRY", 5*time.Minute)
}

func (Backend) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
}

func (Backend) GetRefreshTokenLength() int {
	return GetEnvInt("REFRESH_TOKEN_LENGTH", 32) // 32 bytes = 256 bits
}

func toAddr(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// GetSeedUsername is the user created when the development backend starts.
func (Backend) GetSeedUsername() string {
	return GetEnv("DEV_USERNAME", "admin")
}

func (Backend) GetSeedPassword() string {
	return GetEnv("DEV_PASSWORD", "admin")
}

// GetSeedClients lists the client accounts of the seed user, comma separated.
func (Backend) GetSeedClients() []string {
	var clients []string
	for _, c := range strings.Split(GetEnv("DEV_CLIENTS", "DEMO"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			clients = append(clients, c)
		}
	}
	return clients
}
