package config

import (
	"os"
	"strings"
)

const (
	portEnvVar            = "PORT"
	appNameVar            = "APP_NAME"
	envVar                = "ENV"
	baseURLVar            = "BASE_URL"
	oidcConfigFileVar     = "OIDC_CONFIG_FILE"
	usersFileVar          = "USERS_FILE"
	redisAddrVar          = "REDIS_ADDR"
	eventsRedisKeyVar     = "EVENTS_REDIS_KEY"
	logLevelVar           = "LOG_LEVEL"
	defaultEventsRedisKey = "oidc:events"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "OIDC Grants")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

// GetBaseURL returns the base URL of the server (e.g., "https://auth.example.com").
// It is the issuer when the OIDC config file does not name one.
func (EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(GetEnv(baseURLVar, "http://localhost:8080"), "/")
}

// GetOIDCConfigFile is the YAML file with the clients and scopes to register.
func (EnvVars) GetOIDCConfigFile() string {
	return GetEnv(oidcConfigFileVar, "./oidc.yaml")
}

// GetUsersFile is an optional YAML file of accounts loaded into the in-memory identity store.
func (EnvVars) GetUsersFile() string {
	return GetEnv(usersFileVar, "")
}

// GetRedisAddr returns the redis address. Empty means in-memory stores only.
func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (EnvVars) GetEventsRedisKey() string {
	return GetEnv(eventsRedisKeyVar, defaultEventsRedisKey)
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
