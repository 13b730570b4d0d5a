package config

import (
	"strings"
)

// GetWakePhrase returns the phrase the wake word listener scans for.
func GetWakePhrase() string {
	return GetEnvOrDefault("WAKE_PHRASE", "hynox")
}

// GetSpeechLanguage returns the recognition language tag.
func GetSpeechLanguage() string {
	return GetEnvOrDefault("SPEECH_LANGUAGE", "en-US")
}

// GetUploadExtensions returns the allowed data file extensions, lowercase,
// without the leading dot.
func GetUploadExtensions() []string {
	raw := GetEnvOrDefault("UPLOAD_EXTENSIONS", "xlsx,xls,csv")
	parts := strings.Split(raw, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			exts = append(exts, p)
		}
	}
	return exts
}

// GetMaxUploadBytes caps the size of a single data file upload.
func GetMaxUploadBytes() int64 {
	return int64(parseEnvInt("MAX_UPLOAD_MB", 10)) * 1024 * 1024
}
