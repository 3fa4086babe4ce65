package config

import "time"

const (
	sessionHashKeyVar  = "SESSION_HASH_KEY"
	sessionBlockKeyVar = "SESSION_BLOCK_KEY"
)

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetMaxSessionAge() time.Duration {
	return 8 * time.Hour
}

// GetSessionHashKey returns the key authenticating the session cookie. When it is not set the
// server generates one, so sessions do not survive a restart.
func (Security) GetSessionHashKey() []byte {
	return []byte(GetEnv(sessionHashKeyVar, ""))
}

// GetSessionBlockKey returns the optional AES key encrypting the session cookie.
// It must be 16, 24 or 32 bytes long.
func (Security) GetSessionBlockKey() []byte {
	return []byte(GetEnv(sessionBlockKeyVar, ""))
}
