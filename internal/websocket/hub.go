package websocket

import (
	"github.com/isdelr/ender-todo/internal/models"
	"github.com/rs/zerolog/log"
)

const publishBuffer = 64

type countQuery struct {
	userID int64
	reply  chan int
}

// Hub maintains the set of connected clients, grouped by user, and fans
// committed events out to the owner's connections only.
type Hub struct {
	// Connected clients per user.
	clients map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	publish    chan models.Event
	count      chan countQuery
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan models.Event, publishBuffer),
		count:      make(chan countQuery),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for _, conns := range h.clients {
				for client := range conns {
					close(client.Send)
				}
			}
			h.clients = make(map[int64]map[*Client]bool)
			return
		case client := <-h.register:
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			log.Info().Int64("user_id", client.UserID).Int("user_clients", len(h.clients[client.UserID])).Msg("Client connected")
		case client := <-h.unregister:
			h.remove(client)
		case event := <-h.publish:
			h.deliver(event)
		case q := <-h.count:
			q.reply <- len(h.clients[q.userID])
		}
	}
}

// Stop halts the hub and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues event for the connections of its owner. Events are dropped
// when the queue is full.
func (h *Hub) Publish(event models.Event) {
	select {
	case h.publish <- event:
	default:
		log.Warn().Int64("user_id", event.UserID).Str("type", event.Type).Msg("Event queue full, dropping live update")
	}
}

// Connected returns how many connections userID currently has open.
func (h *Hub) Connected(userID int64) int {
	q := countQuery{userID: userID, reply: make(chan int, 1)}
	select {
	case h.count <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) deliver(event models.Event) {
	conns := h.clients[event.UserID]
	if len(conns) == 0 {
		return
	}
	message, err := NewEventMessage(event)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to encode event")
		return
	}
	for client := range conns {
		select {
		case client.Send <- message:
		default:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	close(client.Send)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	log.Info().Int64("user_id", client.UserID).Msg("Client disconnected")
}
