package config

import (
	"time"

	"github.com/hynox/vox/internal/logger"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := GetEnvOrDefault("RATELIMIT_ENABLED", "false") == "true"

	configs := map[string]RateLimitConfig{
		"oauth_token": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_OAUTH_TOKEN", 30), // 30 requests per minute
			Window:  time.Minute,
		},
		"connect_upload": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_CONNECT_UPLOAD", 10), // 10 uploads per minute
			Window:  time.Minute,
		},
		"chat_query": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_CHAT_QUERY", 60), // 60 queries per minute
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	logger.Warn(logger.CONFIG, "No rate limit config found for key: %s", key)
	return RateLimitConfig{Enabled: false}
}
