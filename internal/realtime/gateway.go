package realtime

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/readory/readory/internal/model"
	"github.com/readory/readory/internal/utils"
)

// MembershipChecker answers whether a user holds a membership row for a
// group.  Satisfied by *repository.GroupRepo.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID uint64) (bool, error)
}

// MessageWriter persists a message attributed to a sender and returns the
// stored record.  Satisfied by *repository.MessageRepo.
type MessageWriter interface {
	Insert(ctx context.Context, groupID, senderID uint64, content string) (model.Message, error)
}

// Gateway upgrades HTTP requests on the discussions path into authenticated
// websocket connections and relays room-scoped messages.  The bearer token
// presented at handshake time is a separate trust domain from the HTTP
// session cookie: cookie sessions recover silently via the client bridge,
// a rejected socket requires the user to re-authenticate.
type Gateway struct {
	Secret   string
	Groups   MembershipChecker
	Messages MessageWriter
	Hub      *Hub

	// Publish is called after a message persists, before broadcast, for the
	// event pipeline.  Optional; errors there never affect delivery.
	Publish func(ctx context.Context, m model.Message)

	upgrader websocket.Upgrader
}

// NewGateway wires the gateway with its dependencies.
func NewGateway(secret string, groups MembershipChecker, messages MessageWriter, hub *Hub) *Gateway {
	return &Gateway{
		Secret:   secret,
		Groups:   groups,
		Messages: messages,
		Hub:      hub,
		upgrader: websocket.Upgrader{
			// The bearer token is the access control; origin checks would
			// only duplicate it and break non-browser clients.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// handshakeToken extracts the bearer credential from the `token` query
// parameter (the auth-payload analog) or the Authorization header.
func handshakeToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// ServeHTTP authenticates the handshake and, on success, upgrades the
// connection and runs its read loop until disconnect.  A missing credential
// refuses the connection with "Authentication required", a bad one with
// "Invalid token"; in both cases no upgrade happens.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := handshakeToken(r)
	if token == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	userID, err := utils.VerifyAccessToken(g.Secret, token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		log.Printf("gateway: upgrade failed for user %d: %v", userID, err)
		return
	}

	conn := NewConn(uuid.NewString(), userID, ws)
	log.Printf("gateway: conn %s connected (user %d)", conn.ID, userID)
	g.readLoop(conn)
}

// readLoop processes frames until the connection drops, then removes it
// from every broadcast group.  Handler failures become scoped `error`
// emissions to the offending connection; nothing here may take down the
// gateway or leak to other rooms.
func (g *Gateway) readLoop(c *Conn) {
	defer func() {
		g.Hub.Remove(c)
		c.Close()
		log.Printf("gateway: conn %s disconnected", c.ID)
	}()

	for {
		var f frame
		if err := c.ws.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("gateway: read error on conn %s: %v", c.ID, err)
			}
			return
		}
		switch f.Event {
		case "join":
			g.handleJoin(c, f.RoomID)
		case "message":
			g.handleMessage(c, f.RoomID, f.Content)
		default:
			// Unknown events are ignored, matching the tolerant reader on
			// the browser side.
		}
	}
}

// roomGroupID converts a room identifier into the group primary key it
// denotes.  Rooms are addressed by the decimal form of group_chats.id.
func roomGroupID(roomID string) (uint64, bool) {
	id, err := strconv.ParseUint(roomID, 10, 64)
	return id, err == nil && id > 0
}

// handleJoin admits the connection to a room's broadcast group only when a
// membership row links the connected user to that group.  Membership is
// re-checked on every join because it can change during a long-lived
// connection.
func (g *Gateway) handleJoin(c *Conn, roomID string) {
	gid, ok := roomGroupID(roomID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	member, err := g.Groups.IsMember(ctx, gid, c.UserID)
	if err != nil {
		log.Printf("gateway: membership check failed for conn %s room %s: %v", c.ID, roomID, err)
		c.EmitError("Unauthorized")
		return
	}
	if !member {
		c.EmitError("Unauthorized")
		return
	}
	g.Hub.Join(roomID, c)
}

// handleMessage persists a message attributed to the connection identity
// and broadcasts the stored record to the room.  The broadcast happens only
// after the insert succeeds, so every `new-message` a client observes is
// also retrievable from history.  A connection that never joined the room
// gets a scoped error; persistence failures likewise go to the sender only.
func (g *Gateway) handleMessage(c *Conn, roomID, content string) {
	if roomID == "" || content == "" {
		return
	}
	gid, ok := roomGroupID(roomID)
	if !ok {
		return
	}
	if !g.Hub.InRoom(roomID, c) {
		c.EmitError("Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := g.Messages.Insert(ctx, gid, c.UserID, content)
	if err != nil {
		log.Printf("gateway: persist failed for conn %s room %s: %v", c.ID, roomID, err)
		c.EmitError("Failed to send message")
		return
	}

	if g.Publish != nil {
		g.Publish(ctx, msg)
	}
	g.Hub.Broadcast(roomID, EventNewMessage, msg)
}
