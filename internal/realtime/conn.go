package realtime

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// frame is the wire envelope for both directions.  Client frames carry an
// event name plus the join/message fields; server frames carry an event name
// plus a data payload.
type frame struct {
	Event   string `json:"event"`
	RoomID  string `json:"roomId,omitempty"`
	Content string `json:"content,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Server→client event names.
const (
	EventNewMessage = "new-message"
	EventError      = "error"
)

// Conn is one authenticated gateway connection.  The user identity is fixed
// at handshake time for the connection's whole lifetime; clients never get
// to assert a sender id.  Writes are serialized by a mutex because gorilla
// websocket connections allow only one concurrent writer.
type Conn struct {
	ID     string // uuid, for log correlation
	UserID uint64

	ws      *websocket.Conn
	writeMu sync.Mutex
}

// NewConn wraps an upgraded websocket with its verified identity.
func NewConn(id string, userID uint64, ws *websocket.Conn) *Conn {
	return &Conn{ID: id, UserID: userID, ws: ws}
}

// Emit writes one event frame to this connection only.  A failed write is
// logged and otherwise ignored; the read loop will notice the dead
// connection and tear it down.
func (c *Conn) Emit(event string, data any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(frame{Event: event, Data: data}); err != nil {
		log.Printf("gateway: write %q to conn %s failed: %v", event, c.ID, err)
	}
}

// EmitError sends a scoped error reason to this connection only.  Errors
// are never broadcast to a room.
func (c *Conn) EmitError(reason string) {
	c.Emit(EventError, reason)
}

// Close closes the underlying websocket.
func (c *Conn) Close() {
	_ = c.ws.Close()
}
