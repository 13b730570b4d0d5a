package visualizer

import (
	"context"
	"errors"
	"sync"

	"github.com/hynox/vox/internal/services/speech"
)

// The gateway has no local microphone: audio arrives over the wire as
// 16-bit little-endian PCM chunks pushed by the browser shell. RemoteStream,
// RemoteCapture and RemoteGraph bridge that feed into the capture-session
// and visualizer interfaces.

const remoteBinCount = 64

var ErrNoRemoteStream = errors.New("no remote audio stream bound")

// RemoteStream is a wire-fed capture stream. Chunks pushed after the tracks
// stop are dropped.
type RemoteStream struct {
	mu       sync.Mutex
	analyser *PCMAnalyser
	stopped  bool
}

func NewRemoteStream() *RemoteStream {
	return &RemoteStream{analyser: NewPCMAnalyser(remoteBinCount)}
}

// PushSamples feeds a PCM chunk into the stream's analyser.
func (s *RemoteStream) PushSamples(pcm []byte) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()

	if stopped {
		return
	}
	s.analyser.Push(pcm)
}

// StopTracks releases the stream; further pushes are dropped.
func (s *RemoteStream) StopTracks() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.analyser.Disconnect()
}

// Stopped reports whether the tracks have been released.
func (s *RemoteStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// RemoteCapture hands out the one wire-fed stream bound to a connection.
type RemoteCapture struct {
	mu     sync.Mutex
	stream *RemoteStream
}

func NewRemoteCapture() *RemoteCapture {
	return &RemoteCapture{}
}

// Bind installs a fresh stream for the next capture.
func (c *RemoteCapture) Bind(stream *RemoteStream) {
	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()
}

func (c *RemoteCapture) Capture(_ context.Context) (speech.MediaStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return nil, ErrNoRemoteStream
	}
	return c.stream, nil
}

// RemoteGraph resolves a RemoteStream back to its analyser.
type RemoteGraph struct{}

func (RemoteGraph) Connect(stream speech.MediaStream) (Analyser, error) {
	remote, ok := stream.(*RemoteStream)
	if !ok {
		return nil, errors.New("stream is not a remote PCM stream")
	}
	return remote.analyser, nil
}

func (RemoteGraph) Close() error {
	return nil
}
