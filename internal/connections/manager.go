// Package connections tracks live voice channel websockets and serializes
// writes to them. Gorilla websockets allow one concurrent writer, so every
// outbound frame goes through the per-connection mutex held here.
package connections

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TimeoutConfig holds the timeout settings for voice channel connections.
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values.
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Manager handles voice channel connection lifecycle and outbound frames.
type Manager struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*client
	timeouts TimeoutConfig
}

func NewManager(timeouts TimeoutConfig) *Manager {
	if timeouts.WriteWait <= 0 {
		timeouts = DefaultTimeouts
	}
	return &Manager{
		clients:  make(map[*websocket.Conn]*client),
		timeouts: timeouts,
	}
}

// AddConnection registers a new voice channel connection.
func (m *Manager) AddConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[conn] = &client{conn: conn}
}

// RemoveConnection drops a connection from the registry. The caller owns
// closing the underlying socket.
func (m *Manager) RemoveConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, conn)
}

// HasConnection checks whether a connection is registered.
func (m *Manager) HasConnection(conn *websocket.Conn) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[conn]
	return ok
}

// ConnectionCount returns the number of active connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// SendJSON writes one frame to a single connection under its write mutex.
func (m *Manager) SendJSON(conn *websocket.Conn, v interface{}) error {
	m.mu.RLock()
	c, ok := m.clients[conn]
	m.mu.RUnlock()

	if !ok {
		return websocket.ErrCloseSent
	}
	return m.write(c, v)
}

// BroadcastJSON writes one frame to every connection. Connections whose
// write fails are dropped from the registry.
func (m *Manager) BroadcastJSON(v interface{}) {
	m.mu.RLock()
	clients := make([]*client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		if err := m.write(c, v); err != nil {
			log.Warn().Err(err).Msg("Dropping voice channel connection after failed write")
			m.RemoveConnection(c.conn)
		}
	}
}

func (m *Manager) write(c *client, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(m.timeouts.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// GetTimeouts returns the current timeout configuration.
func (m *Manager) GetTimeouts() TimeoutConfig {
	return m.timeouts
}
