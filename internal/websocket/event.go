package websocket

import (
	"encoding/json"
	"time"

	"github.com/moremoney/moremoney-backend/internal/domain"
)

// EntityType names the kind of record an event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeCategory    EntityType = "category"
)

// Action is what happened to the record
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is the frame pushed to clients. Type is "<entity>.<action>", so a
// client can switch on one field.
type Event struct {
	Type      string     `json:"type"`
	Entity    EntityType `json:"entity"`
	Payload   any        `json:"payload"`
	Timestamp time.Time  `json:"timestamp"`
}

// DeletedPayload identifies a removed record
type DeletedPayload struct {
	ID int32 `json:"id"`
}

// NewEvent stamps a new event with the current UTC time
func NewEvent(entity EntityType, action Action, payload any) Event {
	return Event{
		Type:      string(entity) + "." + string(action),
		Entity:    entity,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionCreated(t *domain.Transaction) Event {
	return NewEvent(EntityTypeTransaction, ActionCreated, t)
}

func TransactionUpdated(t *domain.Transaction) Event {
	return NewEvent(EntityTypeTransaction, ActionUpdated, t)
}

func TransactionDeleted(id int32) Event {
	return NewEvent(EntityTypeTransaction, ActionDeleted, DeletedPayload{ID: id})
}

func CategoryCreated(c *domain.Category) Event {
	return NewEvent(EntityTypeCategory, ActionCreated, c)
}

func CategoryUpdated(c *domain.Category) Event {
	return NewEvent(EntityTypeCategory, ActionUpdated, c)
}

func CategoryDeleted(id int32) Event {
	return NewEvent(EntityTypeCategory, ActionDeleted, DeletedPayload{ID: id})
}
