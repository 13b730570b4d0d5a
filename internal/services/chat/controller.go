// Package chat owns the conversation: the append-only message log, the
// connection-aware dispatch state machine, and the side effects (speech,
// scrolling) a reply triggers.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hynox/vox/internal/config"
	"github.com/hynox/vox/internal/logger"
	"github.com/hynox/vox/internal/services/chat/models"
)

// State is the controller's session state.
type State int

const (
	StateDisconnected State = iota
	StateConnectedIdle
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateConnectedIdle:
		return "connected-idle"
	case StateDispatching:
		return "dispatching"
	default:
		return "disconnected"
	}
}

const (
	// WelcomeMessage seeds a fresh transcript.
	WelcomeMessage = "Hello! I'm Hynox. Ask me anything, or tap the mic and speak. I'll reply here."
	// NoticeConnectFirst rejects queries issued before a file is linked.
	NoticeConnectFirst = "Please connect a database first."
	// NoticeDispatchFailed stands in for an unreachable backend.
	NoticeDispatchFailed = "Sorry, I couldn't reach the assistant. Please try again."
)

var (
	ErrEmptyQuery       = errors.New("empty query")
	ErrNotConnected     = errors.New("no data source connected")
	ErrDispatchInFlight = errors.New("a dispatch is already in flight")
)

// Dispatcher issues one query to the remote analysis backend.
type Dispatcher interface {
	Query(ctx context.Context, chatContext, fileURL string) (*models.StructuredResponse, error)
}

// Speaker voices assistant replies.
type Speaker interface {
	Speak(text string)
}

// Config wires a Controller.
type Config struct {
	Dispatcher Dispatcher
	Speaker    Speaker
	// Timeout bounds one dispatch. Zero means the configured default.
	Timeout time.Duration
	// OnScroll fires after every append; smooth is true once the
	// conversation is past its initial load.
	OnScroll func(smooth bool)
	// OnConnectPrompt fires when a query arrives with no file connected.
	OnConnectPrompt func()
}

// Controller is the session-level orchestrator. At most one dispatch is in
// flight at a time; submissions during a dispatch are ignored. No failure
// path leaves the controller stuck in StateDispatching.
type Controller struct {
	mu         sync.Mutex
	dispatcher Dispatcher
	speaker    Speaker
	timeout    time.Duration
	onScroll   func(smooth bool)
	onPrompt   func()

	messages []models.Message
	state    State
	fileURL  string
	fileName string
}

func NewController(cfg Config) *Controller {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.GetQueryAPITimeout()
	}

	c := &Controller{
		dispatcher: cfg.Dispatcher,
		speaker:    cfg.Speaker,
		timeout:    timeout,
		onScroll:   cfg.OnScroll,
		onPrompt:   cfg.OnConnectPrompt,
		state:      StateDisconnected,
	}

	c.messages = append(c.messages, models.NewMessage(models.RoleAssistant, WelcomeMessage))
	return c
}

// SetConnection installs the linked file reference. A partial reference
// (one field empty) reads as not connected.
func (c *Controller) SetConnection(fileURL, fileName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fileURL == "" || fileName == "" {
		c.fileURL = ""
		c.fileName = ""
		if c.state == StateConnectedIdle {
			c.state = StateDisconnected
		}
		return
	}

	c.fileURL = fileURL
	c.fileName = fileName
	if c.state == StateDisconnected {
		c.state = StateConnectedIdle
	}
}

// Disconnect drops the in-memory file reference and reopens the connect
// prompt. Durable record cleanup belongs to the connection service.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.fileURL = ""
	c.fileName = ""
	c.state = StateDisconnected
	prompt := c.onPrompt
	c.mu.Unlock()

	if prompt != nil {
		prompt()
	}
}

// Submit dispatches one typed or spoken query. The user message is
// appended optimistically; the reply (or a synthetic error-shaped reply)
// is appended and spoken when the dispatch settles.
func (c *Controller) Submit(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyQuery
	}

	c.mu.Lock()

	switch c.state {
	case StateDispatching:
		c.mu.Unlock()
		logger.Debug(logger.CHAT, "Ignoring submission while a dispatch is in flight")
		return models.Message{}, ErrDispatchInFlight

	case StateDisconnected:
		notice := models.NewMessage(models.RoleAssistant, NoticeConnectFirst)
		smooth := c.appendLocked(notice)
		prompt := c.onPrompt
		c.mu.Unlock()

		c.notifyScroll(smooth)
		if prompt != nil {
			prompt()
		}
		return notice, ErrNotConnected
	}

	user := models.NewMessage(models.RoleUser, text)
	smooth := c.appendLocked(user)
	c.state = StateDispatching
	fileURL := c.fileURL
	c.mu.Unlock()

	c.notifyScroll(smooth)

	dctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var response *models.StructuredResponse
	err := errors.New("query backend not configured")
	if c.dispatcher != nil {
		response, err = c.dispatcher.Query(dctx, text, fileURL)
	}
	if err != nil || response == nil {
		// Transport and parse failures render exactly like an API error.
		logger.Error(logger.CHAT, "Chat dispatch failed: %v", err)
		response = models.NewErrorResponse(NoticeDispatchFailed)
	}

	reply := models.NewAssistantResponse(response.DisplayText(), response)

	c.mu.Lock()
	smooth = c.appendLocked(reply)
	// A disconnect can land while the dispatch is in flight; only a live
	// file reference restores the connected state.
	if c.fileURL != "" && c.fileName != "" {
		c.state = StateConnectedIdle
	} else {
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	c.notifyScroll(smooth)

	if c.speaker != nil {
		c.speaker.Speak(response.DisplayText())
	}

	return reply, nil
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connection returns the in-memory file reference.
func (c *Controller) Connection() (fileURL, fileName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileURL, c.fileName
}

// appendLocked appends a message and reports whether the follow-up scroll
// should animate smoothly (true once past the initial exchange).
func (c *Controller) appendLocked(msg models.Message) bool {
	c.messages = append(c.messages, msg)
	return len(c.messages) > 2
}

func (c *Controller) notifyScroll(smooth bool) {
	if c.onScroll != nil {
		c.onScroll(smooth)
	}
}
