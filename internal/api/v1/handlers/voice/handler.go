// Package voice runs the bidirectional voice channel. The browser shell
// streams microphone PCM and control events in; the gateway streams
// transcripts, assistant messages, synthesized speech and visualizer frames
// back out over the same socket.
package voice

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hynox/vox/internal/config"
	"github.com/hynox/vox/internal/connections"
	"github.com/hynox/vox/internal/logger"
	"github.com/hynox/vox/internal/services/chat"
	"github.com/hynox/vox/internal/services/chat/models"
	"github.com/hynox/vox/internal/services/speech"
	"github.com/hynox/vox/internal/services/visualizer"
)

// frameInterval is the visualizer repaint cadence.
const frameInterval = 50 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured shell origins
		return true
	},
}

// Client frame types: audio, end, start, stop, text, wake.
type inboundFrame struct {
	Type    string `json:"type"`
	Audio   string `json:"audio,omitempty"`
	Text    string `json:"text,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

// Server frame types: transcript, notice, state, message, bars, wake.
type outboundFrame struct {
	Type    string          `json:"type"`
	Text    string          `json:"text,omitempty"`
	State   string          `json:"state,omitempty"`
	Heights []float64       `json:"heights,omitempty"`
	Message *models.Message `json:"message,omitempty"`
}

// Deps are the shared services one voice channel needs.
type Deps struct {
	Manager  *connections.Manager
	Chat     *chat.Controller
	Provider speech.RecognizerProvider
	Output   *speech.Output
}

// barsSurface forwards visualizer frames to one connection.
type barsSurface struct {
	manager *connections.Manager
	conn    *websocket.Conn
}

func (s *barsSurface) DrawBars(heights []float64) {
	_ = s.manager.SendJSON(s.conn, outboundFrame{Type: "bars", Heights: heights})
}

func (s *barsSurface) Clear() {
	_ = s.manager.SendJSON(s.conn, outboundFrame{Type: "bars", Heights: make([]float64, visualizer.BarCount)})
}

// HandleVoiceSocket owns one voice channel for its whole lifetime. All the
// per-connection state (capture session, wake listener, visualizer) dies
// with the socket.
func HandleVoiceSocket(deps Deps, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(logger.HANDLER, "Voice channel upgrade failed: %v", err)
		return
	}

	deps.Manager.AddConnection(conn)
	defer func() {
		deps.Manager.RemoveConnection(conn)
		conn.Close()
	}()

	channel := newVoiceChannel(deps, conn)
	defer channel.close()

	channel.run(r.Context())
}

// voiceChannel wires the speech services to one socket. Wake triggers
// arrive on engine goroutines, so the stream handle is guarded.
type voiceChannel struct {
	deps    Deps
	conn    *websocket.Conn
	capture *visualizer.RemoteCapture
	session *speech.Session
	wake    *speech.WakeWordListener
	vis     *visualizer.Visualizer

	mu     sync.Mutex
	stream *visualizer.RemoteStream
}

func newVoiceChannel(deps Deps, conn *websocket.Conn) *voiceChannel {
	c := &voiceChannel{deps: deps, conn: conn}

	c.capture = visualizer.NewRemoteCapture()
	c.vis = visualizer.New(
		visualizer.RemoteGraph{},
		visualizer.TimerScheduler{Interval: frameInterval},
		&barsSurface{manager: deps.Manager, conn: conn},
	)

	c.session = speech.NewSession(
		deps.Provider,
		c.capture,
		deps.Output,
		config.GetSpeechLanguage(),
		speech.SessionCallbacks{
			OnTranscript: c.dispatchTranscript,
			OnNotice:     c.sendNotice,
			OnState:      c.observeState,
		},
	)

	c.wake = speech.NewWakeWordListener(
		deps.Provider,
		config.GetWakePhrase(),
		config.GetSpeechLanguage(),
		c.wakeTriggered,
	)

	return c
}

func (c *voiceChannel) run(ctx context.Context) {
	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(logger.HANDLER, "Voice channel closed unexpectedly: %v", err)
			}
			return
		}

		switch frame.Type {
		case "start":
			c.startCapture(ctx)
		case "stop":
			c.session.Stop()
			c.syncVisualizer()
		case "audio":
			c.pushAudio(frame.Audio)
		case "end":
			c.session.EndUtterance()
			c.wake.EndUtterance()
		case "text":
			c.submit(ctx, frame.Text)
		case "wake":
			c.wake.SetEnabled(frame.Enabled)
		default:
			logger.Debug(logger.HANDLER, "Ignoring unknown voice frame type %q", frame.Type)
		}
	}
}

func (c *voiceChannel) close() {
	c.wake.Close()
	c.session.Close()
	c.vis.Close()
}

// startCapture starts (or toggles off) the capture session. Only a fresh
// start gets a new wire-fed stream; a toggle-off must not rebind the
// capture device.
func (c *voiceChannel) startCapture(ctx context.Context) {
	if c.session.State() == speech.StateIdle {
		stream := visualizer.NewRemoteStream()
		c.mu.Lock()
		c.stream = stream
		c.mu.Unlock()
		c.capture.Bind(stream)
	}

	c.session.Start(ctx)
	c.syncVisualizer()
}

func (c *voiceChannel) pushAudio(encoded string) {
	pcm, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		logger.Debug(logger.HANDLER, "Dropping undecodable audio frame: %v", err)
		return
	}

	c.session.PushAudio(pcm)
	c.wake.PushAudio(pcm)

	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream != nil {
		stream.PushSamples(pcm)
	}
}

// syncVisualizer points the bar loop at the session's live stream, or halts
// it when the capture has ended.
func (c *voiceChannel) syncVisualizer() {
	stream := c.session.Stream()
	c.vis.Update(stream, stream != nil && c.session.State() == speech.StateCapturing)
}

// dispatchTranscript forwards a finalized utterance into the conversation.
func (c *voiceChannel) dispatchTranscript(text string) {
	c.send(outboundFrame{Type: "transcript", Text: text})
	c.submit(context.Background(), text)
}

func (c *voiceChannel) submit(ctx context.Context, text string) {
	reply, err := c.deps.Chat.Submit(ctx, text)
	switch err {
	case nil, chat.ErrNotConnected:
		c.send(outboundFrame{Type: "message", Message: &reply})
	default:
		logger.Debug(logger.HANDLER, "Voice submission dropped: %v", err)
	}
}

func (c *voiceChannel) sendNotice(text string) {
	c.send(outboundFrame{Type: "notice", Text: text})
}

// observeState mirrors session transitions to the client and keeps the wake
// listener out of the way while a capture owns the audio feed.
func (c *voiceChannel) observeState(state speech.SessionState) {
	c.send(outboundFrame{Type: "state", State: state.String()})
	c.wake.SetBlocked(state != speech.StateIdle)
	if state == speech.StateIdle {
		// Sessions can end themselves (end of utterance, errors); the bar
		// loop must not outlive the capture.
		c.vis.Update(nil, false)
	}
}

// wakeTriggered starts a capture in response to the wake phrase and tells
// the client the hands-free path fired.
func (c *voiceChannel) wakeTriggered() {
	c.send(outboundFrame{Type: "wake"})
	c.startCapture(context.Background())
}

func (c *voiceChannel) send(frame outboundFrame) {
	if err := c.deps.Manager.SendJSON(c.conn, frame); err != nil {
		logger.Debug(logger.HANDLER, "Voice frame write failed: %v", err)
	}
}
