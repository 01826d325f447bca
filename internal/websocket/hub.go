package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrSubscriberGone is returned when sending to a closed connection
	ErrSubscriberGone = errors.New("subscriber gone")
	// ErrSendBufferFull is returned when a connection is not draining its queue
	ErrSendBufferFull = errors.New("send buffer full")
)

// Subscriber is a live connection the hub delivers events to.
// Send must not block.
type Subscriber interface {
	ID() string
	UserID() int32
	Send(data []byte) error
	Close() error
}

// Hub tracks live connections per user. A user may hold several
// connections at once, one per open tab.
type Hub struct {
	mu     sync.RWMutex
	byUser map[int32]map[string]Subscriber
}

var _ EventPublisher = (*Hub)(nil)

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{byUser: make(map[int32]map[string]Subscriber)}
}

// Register adds s under its user
func (h *Hub) Register(s Subscriber) {
	h.TryRegister(s, 0)
}

// TryRegister adds s unless its user already holds limit connections, checking
// and inserting under one lock. A limit of zero or less means no cap.
func (h *Hub) TryRegister(s Subscriber, limit int) bool {
	h.mu.Lock()
	subs, ok := h.byUser[s.UserID()]
	if limit > 0 && len(subs) >= limit {
		h.mu.Unlock()
		return false
	}
	if !ok {
		subs = make(map[string]Subscriber)
		h.byUser[s.UserID()] = subs
	}
	subs[s.ID()] = s
	h.mu.Unlock()

	log.Debug().Int32("user_id", s.UserID()).Str("client_id", s.ID()).Msg("WebSocket client registered")
	return true
}

// Unregister removes s and reports whether it was registered
func (h *Hub) Unregister(s Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.byUser[s.UserID()]
	if _, ok := subs[s.ID()]; !ok {
		return false
	}
	delete(subs, s.ID())
	if len(subs) == 0 {
		delete(h.byUser, s.UserID())
	}
	return true
}

// Publish delivers event to every connection of userID. A connection whose
// queue is full is dropped so one stalled tab cannot hold events for the rest.
func (h *Hub) Publish(userID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.byUser[userID]))
	for _, s := range h.byUser[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		err := s.Send(data)
		switch {
		case err == nil:
		case errors.Is(err, ErrSendBufferFull):
			log.Warn().Int32("user_id", userID).Str("client_id", s.ID()).Msg("Dropping slow WebSocket client")
			h.Unregister(s)
			_ = s.Close()
		default:
			log.Debug().Err(err).Int32("user_id", userID).Str("client_id", s.ID()).Msg("Event not delivered")
		}
	}

	if len(targets) > 0 {
		log.Debug().Int32("user_id", userID).Str("event_type", event.Type).Int("clients", len(targets)).Msg("Event published")
	}
}

// ClientCount returns the number of connections held by userID
func (h *Hub) ClientCount(userID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// Len returns the number of connections across all users
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subs := range h.byUser {
		n += len(subs)
	}
	return n
}
