// Package realtime bridges WebSocket connections and the presence registry,
// and fans application events out to online users.
package realtime

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/olatoyosi/prolink/internal/presence"
)

// Event names pushed over the wire.
const (
	// EventOnlineUsers is broadcast to every client on each presence
	// change; payload is the array of online user ids.
	EventOnlineUsers = "getOnlineUsers"

	// EventNewMessage is sent to a message's receiver when online.
	EventNewMessage = "newMessage"

	// EventNewNotification is sent to a notification's target when online.
	EventNewNotification = "new_notification"
)

// Event is the envelope written to clients.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Gateway accepts WebSocket connections, keeps the presence registry up to
// date and delivers events to specific users. Delivery is at-most-once and
// best-effort: events to offline users are dropped, and a connection whose
// outbound buffer is full loses the event rather than backpressuring the
// sender.
type Gateway struct {
	registry presence.Registry
	logger   *slog.Logger
	bufSize  int
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*connection // connID -> connection
}

// connection pairs a socket with its buffered outbound event channel.
type connection struct {
	id   string
	ws   *websocket.Conn
	send chan Event

	mu     sync.Mutex
	closed bool
}

// enqueue offers an event to the connection, dropping it when the buffer is
// full or the connection is already closed. The mutex makes enqueue and close
// mutually exclusive: an emit racing a disconnect must never send on the
// closed channel.
func (c *connection) enqueue(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send channel onto the socket until the channel closes
// or a write fails.
func (c *connection) writePump() {
	for ev := range c.send {
		if err := c.ws.WriteJSON(ev); err != nil {
			break
		}
	}
	_ = c.ws.Close()
}

// NewGateway returns a Gateway over the given registry. bufSize is the
// per-connection outbound buffer; values <= 0 get a default of 32.
func NewGateway(registry presence.Registry, logger *slog.Logger, bufSize int) *Gateway {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Gateway{
		registry: registry,
		logger:   logger,
		bufSize:  bufSize,
		upgrader: websocket.Upgrader{
			// Browser origin policy is enforced at the proxy layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*connection),
	}
}

// HandleWS upgrades the request and services the connection until the peer
// disconnects. The user identity, when present, comes from the handshake's
// userId query parameter.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	c := &connection{id: connID, ws: ws, send: make(chan Event, g.bufSize)}

	g.mu.Lock()
	g.conns[connID] = c
	g.mu.Unlock()

	go c.writePump()

	// The web client connects with the literal string "undefined" before it
	// has an identity; such connections stay anonymous viewers and are
	// never registered.
	userID := r.URL.Query().Get("userId")
	if userID != "" && userID != "undefined" {
		g.registry.Register(userID, connID)
	}
	g.broadcastOnline()

	// Inbound frames carry nothing the server acts on; the read loop only
	// detects the peer going away.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	g.dropConnection(connID)
}

// EmitToUser delivers an event to the user's live connection, if any. It
// never blocks and never reports failure: offline targets and full buffers
// both drop the event, leaving the durable record as the source of truth.
func (g *Gateway) EmitToUser(userID, event string, payload any) {
	connID, ok := g.registry.Lookup(userID)
	if !ok {
		return
	}

	g.mu.RLock()
	c := g.conns[connID]
	g.mu.RUnlock()
	if c == nil {
		return
	}

	if !c.enqueue(Event{Event: event, Payload: payload}) {
		g.logger.Warn("dropping event for slow connection", "event", event, "user", userID)
	}
}

// broadcastOnline pushes the current presence snapshot to every connection,
// anonymous viewers included.
func (g *Gateway) broadcastOnline() {
	ev := Event{Event: EventOnlineUsers, Payload: g.registry.Snapshot()}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.conns {
		if !c.enqueue(ev) {
			g.logger.Warn("dropping presence broadcast for slow connection", "conn", c.id)
		}
	}
}

// dropConnection removes the connection, deregisters presence and broadcasts
// the updated snapshot.
func (g *Gateway) dropConnection(connID string) {
	g.mu.Lock()
	c := g.conns[connID]
	delete(g.conns, connID)
	g.mu.Unlock()

	if c != nil {
		c.close()
	}

	g.registry.Unregister(connID)
	g.broadcastOnline()
}
