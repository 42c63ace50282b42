package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/aquavigil/model"
)

const sendBuffer = 256

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is open on the whole API; the stream follows the same policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub keeps the set of connected stream clients and broadcasts every gateway message
// to all of them. Slow clients are dropped rather than blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	logger  zerolog.Logger
}

func NewHub(l zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  l.With().Str("component", "websocket").Logger(),
	}
}

// Start closes every client once ctx is done.
func (h *Hub) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		h.Close()
	}()
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.logger.Info().Msg("websocket hub closed")
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Debug().Str("remote", c.remote).Msg("client registered")
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Debug().Str("remote", c.remote).Msg("client unregistered")
	}
}

func (h *Hub) Send(msg model.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(err, errors.New("failed to marshal message"))
	}
	h.broadcast(b)
	return nil
}

func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.logger.Warn().Str("remote", c.remote).Msg("client send buffer full, removing")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ServeWS upgrades the request and streams gateway messages to the new client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: conn.RemoteAddr().String(),
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
