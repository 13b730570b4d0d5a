package config

import (
	"github.com/hynox/vox/internal/logger"
)

func GetSupabaseURL() string {
	value := GetEnvOrDefault("SUPABASE_URL", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "Supabase URL not set - file storage will be unavailable")
	}
	return value
}

func GetSupabaseAnonKey() string {
	return GetEnvOrDefault("SUPABASE_ANON_KEY", "")
}

// GetStorageBucket returns the storage bucket holding uploaded data files
func GetStorageBucket() string {
	return GetEnvOrDefault("STORAGE_BUCKET", "file-storage")
}

// GetStoragePrefix returns the object path prefix for uploaded data files
func GetStoragePrefix() string {
	return GetEnvOrDefault("STORAGE_PREFIX", "excel-uploads")
}
