// Package speech implements the voice interaction core: single-utterance
// capture sessions, wake word listening, and spoken output. The underlying
// engines (recognition, synthesis, microphone capture) are injected so the
// state machines run the same against a browser bridge, a server-side
// engine, or the in-memory fakes used in tests.
package speech

import (
	"context"
	"errors"
)

// Recognition engine error codes. Codes outside this set tear the session
// down silently.
const (
	ErrCodeNoSpeech = "no-speech"
	ErrCodeNetwork  = "network"
)

// User-facing notices emitted by the session.
const (
	NoticeNoSpeech     = "No speech detected. Please try again."
	NoticeNetworkError = "Network error. Please check your connection."
	NoticeUnsupported  = "Speech recognition is not supported on this device. Please type your message instead."
)

var ErrNoSynthesizer = errors.New("speech synthesis unavailable")

// RecognitionResult is one transcript hypothesis reported by the engine.
type RecognitionResult struct {
	Transcript string
	IsFinal    bool
}

// RecognitionEvent carries the engine's full result list plus the index of
// the first result that changed since the previous event.
type RecognitionEvent struct {
	ResultIndex int
	Results     []RecognitionResult
}

// RecognitionHandlers mirror the engine callbacks.
type RecognitionHandlers struct {
	OnResult func(RecognitionEvent)
	OnEnd    func()
	OnError  func(code string)
}

// RecognizerConfig configures one recognition engagement.
type RecognizerConfig struct {
	Language        string
	InterimResults  bool
	Continuous      bool
	MaxAlternatives int
}

// Recognizer is one engagement of a recognition engine. Handlers must be
// cleared before Stop when the owner does not want end-of-engagement
// callbacks delivered after teardown.
type Recognizer interface {
	SetHandlers(RecognitionHandlers)
	ClearHandlers()
	Start() error
	Stop()
}

// RecognizerProvider constructs recognizers. Available reports whether the
// environment has a recognition engine at all; callers must follow the
// fallback path when it does not.
type RecognizerProvider interface {
	Available() bool
	NewRecognizer(cfg RecognizerConfig) Recognizer
}

// AudioConsumer is implemented by recognizers that are fed raw audio by the
// caller rather than owning a device.
type AudioConsumer interface {
	PushAudio(chunk []byte)
}

// Finisher is implemented by recognizers that need an explicit
// end-of-utterance signal instead of detecting silence themselves.
type Finisher interface {
	Finish()
}

// MediaStream is a live capture stream whose tracks must be released when
// the owning session ends.
type MediaStream interface {
	StopTracks()
}

// CaptureDevice acquires a microphone stream. Denial returns an error and
// is non-fatal to the caller.
type CaptureDevice interface {
	Capture(ctx context.Context) (MediaStream, error)
}

// Utterance is a single piece of text to speak.
type Utterance struct {
	Text   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// Synthesizer converts text to audible speech. Speak replaces any playing
// utterance only when the caller cancels first; Output takes care of that.
type Synthesizer interface {
	Speak(u Utterance) error
	Cancel()
}
