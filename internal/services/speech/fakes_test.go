package speech

import (
	"context"
	"errors"
	"sync"
)

type fakeRecognizer struct {
	mu                sync.Mutex
	cfg               RecognizerConfig
	handlers          RecognitionHandlers
	startCount        int
	stopCount         int
	handlersCleared   bool
	clearedBeforeStop bool
	startErr          error
	stopPanics        bool
}

func (r *fakeRecognizer) SetHandlers(h RecognitionHandlers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = h
	r.handlersCleared = false
}

func (r *fakeRecognizer) ClearHandlers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = RecognitionHandlers{}
	r.handlersCleared = true
}

func (r *fakeRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startCount++
	return r.startErr
}

func (r *fakeRecognizer) Stop() {
	r.mu.Lock()
	r.stopCount++
	if r.handlersCleared {
		r.clearedBeforeStop = true
	}
	panics := r.stopPanics
	r.mu.Unlock()

	if panics {
		panic(errors.New("engine already stopped"))
	}
}

func (r *fakeRecognizer) emitResult(ev RecognitionEvent) {
	r.mu.Lock()
	h := r.handlers.OnResult
	r.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (r *fakeRecognizer) emitEnd() {
	r.mu.Lock()
	h := r.handlers.OnEnd
	r.mu.Unlock()
	if h != nil {
		h()
	}
}

func (r *fakeRecognizer) emitError(code string) {
	r.mu.Lock()
	h := r.handlers.OnError
	r.mu.Unlock()
	if h != nil {
		h(code)
	}
}

type fakeProvider struct {
	mu          sync.Mutex
	available   bool
	startErr    error
	stopPanics  bool
	recognizers []*fakeRecognizer
}

func (p *fakeProvider) Available() bool {
	return p.available
}

func (p *fakeProvider) NewRecognizer(cfg RecognizerConfig) Recognizer {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := &fakeRecognizer{cfg: cfg, startErr: p.startErr, stopPanics: p.stopPanics}
	p.recognizers = append(p.recognizers, rec)
	return rec
}

func (p *fakeProvider) created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.recognizers)
}

func (p *fakeProvider) last() *fakeRecognizer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.recognizers) == 0 {
		return nil
	}
	return p.recognizers[len(p.recognizers)-1]
}

type fakeStream struct {
	mu        sync.Mutex
	stopCount int
}

func (s *fakeStream) StopTracks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCount++
}

func (s *fakeStream) stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCount
}

type fakeCapture struct {
	mu      sync.Mutex
	err     error
	calls   int
	streams []*fakeStream
}

func (c *fakeCapture) Capture(_ context.Context) (MediaStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	stream := &fakeStream{}
	c.streams = append(c.streams, stream)
	return stream, nil
}

type fakeSynth struct {
	mu      sync.Mutex
	spoken  []Utterance
	cancels int
	order   []string
	err     error
}

func (s *fakeSynth) Speak(u Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, u)
	s.order = append(s.order, "speak")
	return s.err
}

func (s *fakeSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	s.order = append(s.order, "cancel")
}

// collector gathers session callbacks for assertions.
type collector struct {
	mu          sync.Mutex
	transcripts []string
	notices     []string
	states      []SessionState
}

func (c *collector) callbacks() SessionCallbacks {
	return SessionCallbacks{
		OnTranscript: func(text string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.transcripts = append(c.transcripts, text)
		},
		OnNotice: func(text string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.notices = append(c.notices, text)
		},
		OnState: func(state SessionState) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.states = append(c.states, state)
		},
	}
}

func (c *collector) gotTranscripts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.transcripts...)
}

func (c *collector) gotNotices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.notices...)
}
