package config

import (
	"time"

	"github.com/hynox/vox/internal/logger"
)

func GetQueryAPIURL() string {
	value := GetEnvOrDefault("QUERY_API_URL", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "Query API URL not set - chat dispatch will be unavailable")
	}
	return value
}

// GetQueryAPITimeout bounds a single chat dispatch. The upstream has no
// cancellation path of its own, so the deadline lives here.
func GetQueryAPITimeout() time.Duration {
	return time.Duration(parseEnvInt("QUERY_API_TIMEOUT_SECONDS", 60)) * time.Second
}
