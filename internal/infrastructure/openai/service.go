// Package openai wraps the OpenAI client and exposes the speech engines
// built on it: Whisper transcription and text-to-speech synthesis.
package openai

import (
	"sync"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hynox/vox/internal/config"
)

type Service struct {
	mu     sync.RWMutex
	client *openai.Client
}

func NewService() *Service {
	key := config.GetOpenAIKey()

	if key == "" {
		log.Warn().Msg("OpenAI service not configured - speech recognition and synthesis will be unavailable")
		return nil
	}

	log.Info().Msg("OpenAI service initialized")

	return &Service{
		client: openai.NewClient(key),
	}
}

// NewServiceWithClient wires a pre-built client. Used by tests pointing the
// client at a local server.
func NewServiceWithClient(client *openai.Client) *Service {
	return &Service{client: client}
}

func (s *Service) GetClient() *openai.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}
