package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hynox/vox/internal/logger"
)

// SessionState is the capture lifecycle state.
type SessionState int

const (
	StateIdle SessionState = iota
	StateCapturing
	StateFinalizing
)

func (s SessionState) String() string {
	switch s {
	case StateCapturing:
		return "capturing"
	case StateFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// fallbackListenDuration is how long the session pretends to listen when no
// recognition engine exists, so the caller can still show capture feedback.
const fallbackListenDuration = 1500 * time.Millisecond

// SessionCallbacks receive the session's results. All fields are optional.
type SessionCallbacks struct {
	// OnTranscript receives the finalized utterance text for dispatch.
	OnTranscript func(text string)
	// OnNotice receives user-facing notices (no speech, network error,
	// unsupported environment).
	OnNotice func(text string)
	// OnState observes lifecycle transitions.
	OnState func(state SessionState)
}

// Session captures one spoken utterance at a time. Starting while a capture
// is active stops the current capture instead of starting a second one, so
// at most one recognizer and one media stream are ever held.
type Session struct {
	mu       sync.Mutex
	provider RecognizerProvider
	capture  CaptureDevice
	output   *Output
	language string

	callbacks     SessionCallbacks
	fallbackDelay time.Duration

	state         SessionState
	recognizer    Recognizer
	stream        MediaStream
	transcript    string
	fallbackTimer *time.Timer
}

// NewSession creates a capture session. provider and capture may be nil;
// both absences follow the documented degraded paths. output may be nil
// when the session should not own synthesis teardown.
func NewSession(provider RecognizerProvider, capture CaptureDevice, output *Output, language string, callbacks SessionCallbacks) *Session {
	return &Session{
		provider:      provider,
		capture:       capture,
		output:        output,
		language:      language,
		callbacks:     callbacks,
		fallbackDelay: fallbackListenDuration,
		state:         StateIdle,
	}
}

// Start begins a capture, or stops the active one (toggle semantics).
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()

	if s.state != StateIdle {
		// Toggle: stop the current capture, do not queue a new one.
		s.stopLocked()
		s.mu.Unlock()
		return
	}

	// Microphone acquisition feeds the visualizer; denial is non-fatal and
	// recognition is still attempted.
	if s.capture == nil {
		logger.Warn(logger.SPEECH, "Microphone capture unavailable in this environment")
	} else if stream, err := s.capture.Capture(ctx); err != nil {
		logger.Warn(logger.SPEECH, "Microphone access denied or unavailable: %v", err)
	} else {
		s.stream = stream
	}

	if s.provider == nil || !s.provider.Available() {
		// No engine: show the listening state briefly, then tell the user
		// to type instead. No transcript is ever produced on this path.
		s.setStateLocked(StateCapturing)
		s.fallbackTimer = time.AfterFunc(s.fallbackDelay, s.fallbackExpired)
		s.mu.Unlock()
		return
	}

	rec := s.provider.NewRecognizer(RecognizerConfig{
		Language:        s.language,
		InterimResults:  true,
		Continuous:      false,
		MaxAlternatives: 1,
	})

	s.transcript = ""
	s.recognizer = rec
	rec.SetHandlers(RecognitionHandlers{
		OnResult: s.handleResult,
		OnEnd:    s.handleEnd,
		OnError:  s.handleError,
	})

	s.setStateLocked(StateCapturing)

	if err := rec.Start(); err != nil {
		logger.Error(logger.SPEECH, "Failed to start recognition: %v", err)
		s.stopLocked()
	}

	s.mu.Unlock()
}

// Stop tears down the capture. Safe to call repeatedly and from teardown
// paths; handlers are cleared before the engine is stopped so a stale end
// event cannot fire after teardown.
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// Close stops the capture and cancels any in-flight synthesis.
func (s *Session) Close() {
	s.Stop()
	if s.output != nil {
		s.output.Cancel()
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stream returns the live capture stream, or nil when the microphone was
// denied or the session is idle. The visualizer reads from this.
func (s *Session) Stream() MediaStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// PushAudio forwards a raw audio chunk to the active recognizer when the
// engine is caller-fed. Chunks arriving outside a capture are dropped.
func (s *Session) PushAudio(chunk []byte) {
	s.mu.Lock()
	rec := s.recognizer
	active := s.state == StateCapturing
	s.mu.Unlock()

	if !active || rec == nil {
		return
	}
	if consumer, ok := rec.(AudioConsumer); ok {
		consumer.PushAudio(chunk)
	}
}

// EndUtterance signals end of speech to engines that cannot detect silence
// themselves. Engines that do are unaffected.
func (s *Session) EndUtterance() {
	s.mu.Lock()
	rec := s.recognizer
	active := s.state == StateCapturing
	s.mu.Unlock()

	if !active || rec == nil {
		return
	}
	if finisher, ok := rec.(Finisher); ok {
		finisher.Finish()
	}
}

func (s *Session) handleResult(ev RecognitionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCapturing {
		return
	}

	var finalText, interim string
	for i := ev.ResultIndex; i >= 0 && i < len(ev.Results); i++ {
		if ev.Results[i].IsFinal {
			finalText += ev.Results[i].Transcript
		} else {
			interim += ev.Results[i].Transcript
		}
	}

	// The working transcript is the latest event's full scan, final results
	// winning over interim ones. Overwritten, never appended.
	working := finalText
	if working == "" {
		working = interim
	}
	s.transcript = strings.TrimSpace(working)
}

func (s *Session) handleEnd() {
	s.mu.Lock()
	if s.state != StateCapturing {
		s.mu.Unlock()
		return
	}

	text := s.transcript
	if text != "" {
		s.setStateLocked(StateFinalizing)
	}
	s.mu.Unlock()

	if text != "" {
		if s.callbacks.OnTranscript != nil {
			s.callbacks.OnTranscript(text)
		}
	} else if s.callbacks.OnNotice != nil {
		s.callbacks.OnNotice(NoticeNoSpeech)
	}

	s.Stop()
}

func (s *Session) handleError(code string) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	logger.Error(logger.SPEECH, "Recognition error: %s", code)

	var notice string
	switch code {
	case ErrCodeNoSpeech:
		notice = NoticeNoSpeech
	case ErrCodeNetwork:
		notice = NoticeNetworkError
	}
	if notice != "" && s.callbacks.OnNotice != nil {
		s.callbacks.OnNotice(notice)
	}

	s.Stop()
}

func (s *Session) fallbackExpired() {
	s.mu.Lock()
	if s.state != StateCapturing {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.mu.Unlock()

	if s.callbacks.OnNotice != nil {
		s.callbacks.OnNotice(NoticeUnsupported)
	}
}

// stopLocked releases everything the session holds. Caller must hold mu.
// Handler clearing happens before the engine stop call resolves so no stale
// callback re-enters the session.
func (s *Session) stopLocked() {
	if s.fallbackTimer != nil {
		s.fallbackTimer.Stop()
		s.fallbackTimer = nil
	}

	if s.recognizer != nil {
		rec := s.recognizer
		s.recognizer = nil
		rec.ClearHandlers()
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Warn(logger.SPEECH, "Error stopping recognition: %v", r)
				}
			}()
			rec.Stop()
		}()
	}

	if s.stream != nil {
		s.stream.StopTracks()
		s.stream = nil
	}

	s.transcript = ""
	s.setStateLocked(StateIdle)
}

func (s *Session) setStateLocked(state SessionState) {
	if s.state == state {
		return
	}
	s.state = state
	if s.callbacks.OnState != nil {
		// Observers only read the new state; invoking under the lock keeps
		// transition order intact.
		s.callbacks.OnState(state)
	}
}
