package websocket

import (
	"context"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 256

// Client represents a single connected WebSocket client subscribed to one room
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	room   string
	userID string
	send   chan []byte
}

type roomMessage struct {
	room    string
	payload []byte
}

// Hub maintains the set of active clients per room and fans messages out to them.
// All maps are owned by the Run goroutine.
type Hub struct {
	rooms      map[string]map[*Client]bool
	broadcast  chan roomMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan roomMessage, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the core dispatch loop for WebSocket events. It returns when ctx is
// cancelled, after closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
			}
			h.rooms = make(map[string]map[*Client]bool)
			return
		case client := <-h.register:
			clients, ok := h.rooms[client.room]
			if !ok {
				clients = make(map[*Client]bool)
				h.rooms[client.room] = clients
			}
			clients[client] = true
			h.logger.Debug("WebSocket client joined", zap.String("room", client.room), zap.String("user_id", client.userID))
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.broadcast:
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.payload:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
	h.logger.Debug("WebSocket client left", zap.String("room", client.room), zap.String("user_id", client.userID))
}

// BroadcastToRoom queues payload for every client in room. It never blocks once the
// hub has stopped.
func (h *Hub) BroadcastToRoom(room string, payload []byte) {
	select {
	case h.broadcast <- roomMessage{room: room, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
