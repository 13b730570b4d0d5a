package config

// GetOpenAIKey returns the OpenAI API key. Empty means the speech
// providers fall back to their unsupported paths.
func GetOpenAIKey() string {
	return GetEnvOrDefault("OPENAI_KEY", "")
}
