// Package visualizer renders live frequency-bar feedback for an active
// capture stream. The analysis pipeline, frame cadence and drawing surface
// are injected, so the same loop runs against the gateway's PCM feed or the
// fakes used in tests.
package visualizer

import (
	"sync"
	"time"

	"github.com/hynox/vox/internal/logger"
	"github.com/hynox/vox/internal/services/speech"
)

// BarCount is the fixed number of bars rendered per frame.
const BarCount = 32

// heightScale keeps full-scale input just short of the surface top.
const heightScale = 0.9

// Analyser exposes frequency-bin magnitudes (0-255) for one stream.
type Analyser interface {
	BinCount() int
	FrequencyData(buf []byte)
	Disconnect()
}

// AudioGraph builds one analysis pipeline per stream. The graph never holds
// two sources at once; Visualizer disconnects the previous analyser before
// connecting a new stream.
type AudioGraph interface {
	Connect(stream speech.MediaStream) (Analyser, error)
	Close() error
}

// FrameScheduler schedules one repaint callback at a time; each frame
// schedules the next. The returned cancel drops a pending frame.
type FrameScheduler interface {
	Schedule(frame func()) (cancel func())
}

// Surface is the drawing target for normalized bar heights (0..1).
type Surface interface {
	DrawBars(heights []float64)
	Clear()
}

// Visualizer drives the sample-normalize-draw loop while a capture is
// active and leaves the surface cleared otherwise.
type Visualizer struct {
	mu      sync.Mutex
	graph   AudioGraph
	sched   FrameScheduler
	surface Surface

	analyser    Analyser
	stream      speech.MediaStream
	bins        []byte
	epoch       uint64
	cancelFrame func()
	closed      bool
}

// New creates a visualizer over the given pipeline, cadence and surface.
func New(graph AudioGraph, sched FrameScheduler, surface Surface) *Visualizer {
	return &Visualizer{
		graph:   graph,
		sched:   sched,
		surface: surface,
	}
}

// Update reconciles the loop against the current stream and active flag.
// Turning inactive, or losing the stream, halts the loop, disconnects the
// analysis node and clears the surface. Switching streams rebuilds the
// pipeline with the previous source disconnected first.
func (v *Visualizer) Update(stream speech.MediaStream, active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	if !active || stream == nil {
		v.haltLocked()
		return
	}

	if stream != v.stream {
		// One source in the graph at a time.
		v.haltLocked()

		analyser, err := v.graph.Connect(stream)
		if err != nil {
			logger.Warn(logger.VISUAL, "Failed to connect analysis pipeline: %v", err)
			return
		}
		v.analyser = analyser
		v.stream = stream
		v.bins = make([]byte, analyser.BinCount())
	}

	if v.cancelFrame == nil {
		v.scheduleLocked()
	}
}

// Close halts the loop and releases the audio graph. The visualizer cannot
// be reused afterwards.
func (v *Visualizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.haltLocked()
	v.closed = true

	if err := v.graph.Close(); err != nil {
		logger.Warn(logger.VISUAL, "Failed to close audio graph: %v", err)
	}
}

// Running reports whether a frame loop is active.
func (v *Visualizer) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancelFrame != nil
}

func (v *Visualizer) scheduleLocked() {
	epoch := v.epoch
	v.cancelFrame = v.sched.Schedule(func() { v.step(epoch) })
}

func (v *Visualizer) step(epoch uint64) {
	v.mu.Lock()

	// A frame scheduled before teardown must notice and abort.
	if epoch != v.epoch || v.analyser == nil {
		v.mu.Unlock()
		return
	}

	v.analyser.FrequencyData(v.bins)

	heights := make([]float64, BarCount)
	for i := 0; i < BarCount; i++ {
		// Sample the spectrum evenly across the bins.
		dataIndex := i * len(v.bins) / BarCount
		heights[i] = float64(v.bins[dataIndex]) / 255 * heightScale
	}

	v.scheduleLocked()
	surface := v.surface
	v.mu.Unlock()

	surface.DrawBars(heights)
}

// haltLocked cancels the pending frame, invalidates in-flight ones,
// disconnects the source and clears the surface. Caller must hold mu.
func (v *Visualizer) haltLocked() {
	v.epoch++

	if v.cancelFrame != nil {
		v.cancelFrame()
		v.cancelFrame = nil
	}

	if v.analyser != nil {
		v.analyser.Disconnect()
		v.analyser = nil
		v.stream = nil
		v.surface.Clear()
	}
}

// TimerScheduler schedules frames on a fixed interval, standing in for a
// display's repaint timing.
type TimerScheduler struct {
	Interval time.Duration
}

func (s TimerScheduler) Schedule(frame func()) func() {
	timer := time.AfterFunc(s.Interval, frame)
	return func() { timer.Stop() }
}
