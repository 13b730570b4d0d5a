package openai

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hynox/vox/internal/services/speech"
)

const synthesisTimeout = 30 * time.Second

// AudioSink receives one encoded utterance, ready for playback.
type AudioSink func(audio []byte)

// SpeechSynthesizer voices text through the speech API and hands the MP3
// bytes to a sink. One utterance plays at a time; Cancel aborts the
// in-flight request.
type SpeechSynthesizer struct {
	service *Service
	sink    AudioSink

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewSpeechSynthesizer(service *Service, sink AudioSink) *SpeechSynthesizer {
	return &SpeechSynthesizer{service: service, sink: sink}
}

func (s *SpeechSynthesizer) Speak(u speech.Utterance) error {
	if s.service == nil || s.service.GetClient() == nil {
		return speech.ErrNoSynthesizer
	}

	ctx, cancel := context.WithTimeout(context.Background(), synthesisTimeout)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	resp, err := s.service.GetClient().CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          u.Text,
		Voice:          openai.VoiceAlloy,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          u.Rate,
	})
	if err != nil {
		log.Error().Err(err).Msg("Speech synthesis request failed")
		return err
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read synthesized audio")
		return err
	}

	if s.sink != nil {
		s.sink(audio)
	}
	return nil
}

// Cancel aborts the in-flight synthesis, if any.
func (s *SpeechSynthesizer) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
