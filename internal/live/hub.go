package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Message is what every subscriber of a tournament receives
type Message struct {
	Type         string    `json:"type"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Payload      any       `json:"payload"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room uuid.UUID
}

// Hub fans bracket updates out to every dashboard watching a tournament.
// One room per tournament.
type Hub struct {
	register   chan *client
	unregister chan *client
	done       chan struct{}
	upgrader   websocket.Upgrader

	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*client]bool
}

// NewHub accepts websocket upgrades from the given origins, an empty list allows any
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		rooms:      make(map[uuid.UUID]map[*client]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin] || set["*"]
	}
}

// Run owns room membership until ctx is done, then drops every client
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[c.room]; !ok {
				h.rooms[c.room] = make(map[*client]bool)
			}
			h.rooms[c.room][c] = true
			slog.Debug("live client joined", "tournament_id", c.room, "clients", len(h.rooms[c.room]))
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, room := range h.rooms {
				for c := range room {
					h.remove(c)
				}
			}
			h.mu.Unlock()
			return nil
		}
	}
}

// remove expects h.mu to be held
func (h *Hub) remove(c *client) {
	room, ok := h.rooms[c.room]
	if !ok || !room[c] {
		return
	}
	close(c.send)
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.room)
	}
	slog.Debug("live client left", "tournament_id", c.room, "clients", len(room))
}

func (h *Hub) ClientCount(tournamentID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tournamentID])
}

// Publish never blocks. A subscriber whose buffer is full misses the update
// and catches up with the next one, every message carries the full view.
func (h *Hub) Publish(tournamentID uuid.UUID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[tournamentID]
	if !ok {
		return
	}

	data, err := json.Marshal(Message{Type: event, TournamentID: tournamentID, Payload: payload})
	if err != nil {
		slog.Error("live message encode failed", "tournament_id", tournamentID, "error", err)
		return
	}

	for c := range room {
		select {
		case c.send <- data:
		default:
			slog.Warn("live client too slow, update dropped", "tournament_id", tournamentID)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to the tournament
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, tournamentID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		slog.Warn("websocket upgrade failed", "tournament_id", tournamentID, "error", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), room: tournamentID}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for the peer going away, dashboards never send anything
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("live client read failed", "tournament_id", c.room, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("live client write failed", "tournament_id", c.room, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
