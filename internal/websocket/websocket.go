package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abrezinsky/pairsync/internal/formloop"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/internal/models"
	"github.com/abrezinsky/pairsync/internal/selection"
	"github.com/abrezinsky/pairsync/pkg/tournamentapi"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // host admin pages live on another origin
	},
}

// Hub maintains the set of live form sessions
type Hub struct {
	log        logger.Logger
	client     tournamentapi.Client
	policy     selection.StalePolicy
	timeout    time.Duration
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	quit       chan struct{}
	closeOnce  sync.Once
	mutex      sync.RWMutex
}

// Option configures a Hub
type Option func(*Hub)

// WithStalePolicy decides what sessions do with out-of-order responses
func WithStalePolicy(p selection.StalePolicy) Option {
	return func(h *Hub) { h.policy = p }
}

// WithRequestTimeout bounds each backend query a session issues
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Hub) { h.timeout = d }
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, client tournamentapi.Client, opts ...Option) *Hub {
	h := &Hub{
		log:        log,
		client:     client,
		policy:     selection.DiscardStale,
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		quit:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// Close disconnects every session and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Sessions returns the number of connected sessions
func (h *Hub) Sessions() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions)
}

// APIBaseURL returns the backend the sessions query
func (h *Hub) APIBaseURL() string {
	return h.client.BaseURL()
}

// run handles session registration and unregistration
func (h *Hub) run() {
	for {
		select {
		case s := <-h.register:
			h.mutex.Lock()
			h.sessions[s] = true
			total := len(h.sessions)
			h.mutex.Unlock()
			h.log.Debug("Session connected", "session", s.id, "kind", s.kind, "total_sessions", total)

		case s := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.sessions[s]; ok {
				delete(h.sessions, s)
				close(s.send)
			}
			total := len(h.sessions)
			h.mutex.Unlock()
			h.log.Debug("Session disconnected", "session", s.id, "total_sessions", total)

		case <-h.quit:
			h.mutex.Lock()
			for s := range h.sessions {
				s.conn.Close()
			}
			h.mutex.Unlock()
			h.log.Info("Websocket hub stopped")
			return
		}
	}
}

// ServeWs returns a handler that upgrades the request and runs a session for a form of kind
func (h *Hub) ServeWs(kind selection.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := selection.NewForm(kind, h.policy)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Error("WebSocket upgrade error", "error", err)
			return
		}

		s := &Session{
			hub:  h,
			id:   uuid.NewString(),
			kind: kind,
			conn: conn,
			send: make(chan models.WSMessage, sendBuffer),
		}
		s.log = h.log.With("session", s.id, "kind", string(kind))
		s.loop = formloop.New(s.log, h.client, form, s, formloop.WithRequestTimeout(h.timeout))

		select {
		case h.register <- s:
		case <-h.quit:
			conn.Close()
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.loop.Run(ctx)

		// The client learns its session id and the empty controls before any event
		s.PublishSnapshot(s.loop.Snapshot())

		go s.writePump()
		go s.readPump()
	}
}
