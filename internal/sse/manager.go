package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smakiapp/smaki-server/internal/id"
	"github.com/smakiapp/smaki-server/internal/metrics"
)

const (
	queueSize        = 256
	clientBufferSize = 32
	heartbeatEvery   = 30 * time.Second
)

// ErrClosed is returned by Connect once the manager has stopped.
var ErrClosed = errors.New("sse manager is shut down")

// Client is one open stream. The public menu board and customer pages
// connect as public clients; the staff panel connects as staff.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	Staff       bool
}

// Manager fans selection and flavor events out to connected clients.
type Manager struct {
	logger    *slog.Logger
	queue     chan Event
	heartbeat time.Duration

	// mu guards clients and closed. broadcast holds it for reading, so a
	// client's channels are never closed while an event is being sent.
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool

	running atomic.Bool
	stopped chan struct{}
}

// NewManager creates a manager. Call Start to begin delivering events.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:    logger,
		queue:     make(chan Event, queueSize),
		heartbeat: heartbeatEvery,
		clients:   make(map[string]*Client),
		stopped:   make(chan struct{}),
	}
}

// Start delivers queued events and heartbeats until the queue is closed by
// Shutdown or ctx is cancelled. Only the first call does anything.
func (m *Manager) Start(ctx context.Context) {
	if !m.running.CompareAndSwap(false, true) {
		return
	}
	defer close(m.stopped)

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-m.queue:
			if !ok {
				return
			}
			m.broadcast(event)
		case <-ticker.C:
			m.broadcast(NewHeartbeatEvent())
		case <-ctx.Done():
			m.mu.Lock()
			m.closed = true
			m.mu.Unlock()
			m.disconnectAll()
			return
		}
	}
}

// Shutdown stops accepting events, delivers what is still queued and
// disconnects every client. It is safe to call more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	if m.running.Load() {
		select {
		case <-m.stopped:
		case <-ctx.Done():
			m.logger.Warn("SSE shutdown timed out before the queue drained")
		}
	} else {
		for event := range m.queue {
			m.broadcast(event)
		}
	}

	m.disconnectAll()
	m.logger.Info("SSE manager stopped")
	return nil
}

// Emit queues an event without blocking. Events are dropped when the queue
// is full or after Shutdown.
func (m *Manager) Emit(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.queue <- event:
	default:
		m.logger.Error("SSE queue full, dropping event", "event_type", event.Type)
	}
}

func (m *Manager) broadcast(event Event) {
	staffOnly := isStaffOnlyEvent(event.Type)
	var delivered, dropped int

	m.mu.RLock()
	for _, c := range m.clients {
		if staffOnly && !c.Staff {
			continue
		}
		select {
		case c.EventChan <- event:
			delivered++
		default:
			dropped++
		}
	}
	m.mu.RUnlock()

	if dropped > 0 {
		m.logger.Warn("SSE clients too slow, event dropped for some",
			"event_type", event.Type, "dropped", dropped)
	}
	if event.Type != EventHeartbeat {
		m.logger.Debug("SSE event delivered", "event_type", event.Type, "clients", delivered)
	}
}

// Connect registers a client. Only staff clients receive flavor events.
// It returns ErrClosed after Shutdown.
func (m *Manager) Connect(staff bool) (*Client, error) {
	clientID, err := id.Generate(id.PrefixClient)
	if err != nil {
		return nil, err
	}
	c := &Client{
		ConnectedAt: time.Now(),
		EventChan:   make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
		ID:          clientID,
		Staff:       staff,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.clients[c.ID] = c
	n := len(m.clients)
	m.mu.Unlock()
	metrics.SSEClients.Inc()

	m.logger.Info("SSE client connected", "client_id", c.ID, "staff", staff, "clients", n)
	return c, nil
}

// Disconnect removes a client and closes its channels. Unknown IDs are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
		closeClient(c)
	}
	n := len(m.clients)
	m.mu.Unlock()
	if !ok {
		return
	}

	m.logger.Info("SSE client disconnected",
		"client_id", clientID, "duration", time.Since(c.ConnectedAt), "clients", n)
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) disconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		closeClient(c)
	}
	clear(m.clients)
}

// closeClient must be called with mu held for writing.
func closeClient(c *Client) {
	close(c.Done)
	close(c.EventChan)
	metrics.SSEClients.Dec()
}
