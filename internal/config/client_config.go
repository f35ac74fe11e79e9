package config

import (
	"strings"
	"time"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetTokenPrefix returns the Authorization scheme, e.g. "Bearer" or "Token".
func (Client) GetTokenPrefix() string {
	return strings.TrimSpace(GetEnv("AUTH_TOKEN_PREFIX", "Bearer"))
}

func (Client) GetAPIDebug() bool {
	return GetEnvBool("API_DEBUG", false)
}

func (Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
}
