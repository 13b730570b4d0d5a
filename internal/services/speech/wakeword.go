package speech

import (
	"strings"
	"sync"

	"github.com/hynox/vox/internal/logger"
)

// WakeWordListener runs a continuous recognition loop and fires a callback
// whenever the rolling transcript contains the trigger phrase. It never owns
// the chat transcript and is blocked while a capture session holds the
// microphone.
//
// One trigger fires per result event whose buffer matches; within a single
// continuous engagement the same phrase can re-trigger on subsequent events.
// The source behavior has no debounce, so none is applied here.
type WakeWordListener struct {
	mu        sync.Mutex
	provider  RecognizerProvider
	phrase    string
	language  string
	onTrigger func()

	enabled    bool
	blocked    bool
	recognizer Recognizer
	closed     bool
}

// NewWakeWordListener creates a listener for the given phrase. The listener
// starts disabled; call SetEnabled(true) to engage.
func NewWakeWordListener(provider RecognizerProvider, phrase, language string, onTrigger func()) *WakeWordListener {
	return &WakeWordListener{
		provider:  provider,
		phrase:    phrase,
		language:  language,
		onTrigger: onTrigger,
	}
}

// SetEnabled engages or disengages the listener.
func (l *WakeWordListener) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.reconcileLocked()
	l.mu.Unlock()
}

// SetBlocked suspends listening while a capture session owns the
// microphone. The engine handle is released; it is re-acquired on unblock.
func (l *WakeWordListener) SetBlocked(blocked bool) {
	l.mu.Lock()
	l.blocked = blocked
	l.reconcileLocked()
	l.mu.Unlock()
}

// Listening reports whether an engine engagement is currently held.
func (l *WakeWordListener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recognizer != nil
}

// Close stops the listener permanently.
func (l *WakeWordListener) Close() {
	l.mu.Lock()
	l.closed = true
	l.enabled = false
	l.reconcileLocked()
	l.mu.Unlock()
}

// PushAudio forwards a raw audio chunk to a caller-fed wake engine. Chunks
// arriving while the listener holds no engagement are dropped.
func (l *WakeWordListener) PushAudio(chunk []byte) {
	l.mu.Lock()
	rec := l.recognizer
	l.mu.Unlock()

	if rec == nil {
		return
	}
	if consumer, ok := rec.(AudioConsumer); ok {
		consumer.PushAudio(chunk)
	}
}

// EndUtterance marks an utterance boundary for engines that need explicit
// segmentation. Engines that detect silence themselves are unaffected.
func (l *WakeWordListener) EndUtterance() {
	l.mu.Lock()
	rec := l.recognizer
	l.mu.Unlock()

	if rec == nil {
		return
	}
	if finisher, ok := rec.(Finisher); ok {
		finisher.Finish()
	}
}

// reconcileLocked starts or stops the engine to match the enabled/blocked
// flags. Caller must hold mu.
func (l *WakeWordListener) reconcileLocked() {
	shouldListen := l.enabled && !l.blocked && !l.closed &&
		l.provider != nil && l.provider.Available()

	if !shouldListen {
		if l.recognizer != nil {
			rec := l.recognizer
			l.recognizer = nil
			rec.ClearHandlers()
			func() {
				defer func() { _ = recover() }()
				rec.Stop()
			}()
		}
		return
	}

	if l.recognizer != nil {
		return
	}

	rec := l.provider.NewRecognizer(RecognizerConfig{
		Language:       l.language,
		InterimResults: true,
		Continuous:     true,
	})
	rec.SetHandlers(RecognitionHandlers{
		OnResult: l.handleResult,
		OnEnd:    l.handleEnd,
		OnError:  l.handleError,
	})
	l.recognizer = rec

	if err := rec.Start(); err != nil {
		logger.Warn(logger.WAKE, "Failed to start wake word listening: %v", err)
		rec.ClearHandlers()
		l.recognizer = nil
	}
}

func (l *WakeWordListener) handleResult(ev RecognitionEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn(logger.WAKE, "Wake word callback panicked: %v", r)
		}
	}()

	// Interim and final results are scanned alike.
	var buf strings.Builder
	for i := ev.ResultIndex; i >= 0 && i < len(ev.Results); i++ {
		buf.WriteString(ev.Results[i].Transcript)
	}
	if buf.Len() == 0 {
		return
	}

	if strings.Contains(strings.ToLower(buf.String()), strings.ToLower(l.phrase)) {
		if l.onTrigger != nil {
			l.onTrigger()
		}
	}
}

// handleEnd restarts the engine: the underlying engagements are bounded, so
// continuous listening is an illusion maintained by immediate restarts.
func (l *WakeWordListener) handleEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.recognizer == nil || !l.enabled || l.blocked || l.closed {
		return
	}

	if err := l.recognizer.Start(); err != nil {
		logger.Warn(logger.WAKE, "Failed to restart wake word listening: %v", err)
	}
}

func (l *WakeWordListener) handleError(code string) {
	logger.Debug(logger.WAKE, "Wake word recognition error ignored: %s", code)
}
