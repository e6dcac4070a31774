package realtime

import (
	"context"
	"encoding/json"

	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
)

// Room name builders. Every authenticated client sits in its user room;
// meeting rooms are joined on demand.
func UserRoom(userID string) string { return "user:" + userID }

func MeetingRoom(meetingID string) string { return "meeting:" + meetingID }

type subscription struct {
	client *Client
	room   string
}

type outbound struct {
	room    string
	payload []byte
}

// Hub is the subscriber registry for progress updates. All room
// membership changes and fan-out go through the Run loop, so no mutex
// guards the maps.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan outbound

	// done is closed when Run returns; senders select against it so
	// connection goroutines never block on a stopped hub.
	done chan struct{}
}

// NewHub creates an empty hub. Call Run before serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan outbound, 64),
		done:        make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled. Remaining clients
// are closed on shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.join(client, UserRoom(client.user.ID))

		case client := <-h.unregister:
			h.drop(client)

		case sub := <-h.subscribe:
			if h.clients[sub.client] {
				h.join(sub.client, sub.room)
			}

		case sub := <-h.unsubscribe:
			h.leave(sub.client, sub.room)

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.payload:
				default:
					// Slow consumer; drop it rather than stall the hub.
					h.drop(client)
				}
			}
		}
	}
}

// Publish fans a progress event out to everyone in the given room.
// It never blocks the caller: if the hub's buffer is full the event is
// dropped and logged, since progress updates are advisory.
func (h *Hub) Publish(room string, event *domain.ProgressEvent) {
	payload, err := json.Marshal(serverFrame{Type: frameJobUpdate, Data: event})
	if err != nil {
		logger.Error("Failed to marshal progress event: %v", err)
		return
	}
	select {
	case h.broadcast <- outbound{room: room, payload: payload}:
	default:
		logger.Warn("Realtime broadcast buffer full, dropping update for room %s", room)
	}
}

func (h *Hub) join(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
	client.rooms[room] = true
}

func (h *Hub) leave(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// drop removes a client from every room it joined and closes its send
// channel. Safe to call more than once for the same client.
func (h *Hub) drop(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for room := range client.rooms {
		h.leave(client, room)
	}
	close(client.send)
}
