// Package realtime implements the websocket discussion gateway: bearer-token
// authentication on the handshake, membership-checked room joins, and
// persist-then-broadcast message relay.
package realtime

import "sync"

// Hub maps room identifiers to the set of live connections joined to them.
// It is the explicit broadcast-group structure the gateway writes through;
// membership rows in the database decide who may enter, the hub only tracks
// who currently is in.  Rooms are independent of each other, so one mutex
// over the two maps is enough.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
	conns map[*Conn]map[string]struct{} // reverse index for disconnect cleanup
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Conn]struct{}),
		conns: make(map[*Conn]map[string]struct{}),
	}
}

// Join adds a connection to a room's broadcast group.  Joining a room twice
// is harmless.
func (h *Hub) Join(roomID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Conn]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	if h.conns[c] == nil {
		h.conns[c] = make(map[string]struct{})
	}
	h.conns[c][roomID] = struct{}{}
}

// InRoom reports whether the connection has joined the room.
func (h *Hub) InRoom(roomID string, c *Conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][c]
	return ok
}

// Remove drops the connection from every room it joined.  Called exactly
// once when a connection closes; empty rooms are deleted so the map does
// not accumulate dead keys.
func (h *Hub) Remove(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.conns[c] {
		delete(h.rooms[roomID], c)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.conns, c)
}

// Broadcast sends an event to every connection currently in the room.  The
// member list is snapshotted under the read lock and writes happen outside
// it, so one slow connection cannot stall joins on other rooms.
func (h *Hub) Broadcast(roomID, event string, data any) {
	h.mu.RLock()
	members := make([]*Conn, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.Emit(event, data)
	}
}

// RoomSize reports how many connections are in a room.  Used by tests.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
