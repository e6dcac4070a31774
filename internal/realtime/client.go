package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/identity"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// authWait bounds how long an unauthenticated connection may hold a
	// socket before sending its auth frame.
	authWait = 10 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 16
)

// Client-to-server message types.
const (
	msgAuth        = "auth"
	msgSubscribe   = "subscribe-meeting"
	msgUnsubscribe = "unsubscribe-meeting"
)

// Server-to-client frame types.
const (
	frameConnected  = "connected"
	frameSubscribed = "subscribed"
	frameJobUpdate  = "job-update"
	frameError      = "error"
)

type clientMessage struct {
	Type      string `json:"type"`
	Token     string `json:"token,omitempty"`
	MeetingID string `json:"meetingId,omitempty"`
}

type serverFrame struct {
	Type      string               `json:"type"`
	MeetingID string               `json:"meetingId,omitempty"`
	UserID    string               `json:"userId,omitempty"`
	Message   string               `json:"message,omitempty"`
	Data      *domain.ProgressEvent `json:"data,omitempty"`
}

// MeetingGate answers whether a user may watch a meeting's progress.
type MeetingGate interface {
	Owns(ctx context.Context, meetingID, userID string) (bool, error)
}

// Client is one authenticated WebSocket connection.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	user  *domain.User
	send  chan []byte
	rooms map[string]bool // owned by the hub's Run loop
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Bearer-token auth on the first frame is the access control; the
	// Origin header is not, since non-browser clients connect too.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request, authenticates the first frame against
// the identity service and hands the connection to the hub.
func ServeWS(hub *Hub, verifier identity.TokenVerifier, gate MeetingGate, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.CtxWarn(r.Context(), "WebSocket upgrade failed: %v", err)
		return
	}

	user, err := authenticate(r.Context(), conn, verifier)
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "authentication failed")
		conn.Close()
		return
	}

	client := &Client{
		hub:   hub,
		conn:  conn,
		user:  user,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]bool),
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		writeClose(conn, websocket.CloseGoingAway, "server shutting down")
		conn.Close()
		return
	}

	logger.CtxInfo(r.Context(), "WebSocket client connected for user %s", user.ID)

	go client.writePump()
	go client.readPump(gate)
}

// authenticate reads the first frame, which must be an auth message
// carrying a bearer token, and replies with a connected frame.
func authenticate(ctx context.Context, conn *websocket.Conn, verifier identity.TokenVerifier) (*domain.User, error) {
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(authWait)); err != nil {
		return nil, err
	}

	var msg clientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	if msg.Type != msgAuth || msg.Token == "" {
		return nil, identity.ErrInvalidToken
	}

	user, err := verifier.VerifyToken(ctx, msg.Token)
	if err != nil {
		return nil, err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(serverFrame{Type: frameConnected, UserID: user.ID}); err != nil {
		return nil, err
	}
	return user, nil
}

// readPump consumes subscribe/unsubscribe messages until the connection
// drops.
func (c *Client) readPump(gate MeetingGate) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error for user %s: %v", c.user.ID, err)
			}
			return
		}
		c.handle(&msg, gate)
	}
}

func (c *Client) handle(msg *clientMessage, gate MeetingGate) {
	switch msg.Type {
	case msgSubscribe:
		if msg.MeetingID == "" {
			c.reply(serverFrame{Type: frameError, Message: "meetingId is required"})
			return
		}
		if gate != nil {
			owns, err := gate.Owns(context.Background(), msg.MeetingID, c.user.ID)
			if err != nil || !owns {
				c.reply(serverFrame{Type: frameError, MeetingID: msg.MeetingID, Message: "meeting not found"})
				return
			}
		}
		select {
		case c.hub.subscribe <- subscription{client: c, room: MeetingRoom(msg.MeetingID)}:
		case <-c.hub.done:
			return
		}
		c.reply(serverFrame{Type: frameSubscribed, MeetingID: msg.MeetingID})

	case msgUnsubscribe:
		if msg.MeetingID != "" {
			select {
			case c.hub.unsubscribe <- subscription{client: c, room: MeetingRoom(msg.MeetingID)}:
			case <-c.hub.done:
			}
		}

	default:
		c.reply(serverFrame{Type: frameError, Message: "unknown message type"})
	}
}

// reply queues a frame for this client only, dropping it if the client
// is too far behind.
func (c *Client) reply(frame serverFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

func writeClose(conn *websocket.Conn, code int, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
