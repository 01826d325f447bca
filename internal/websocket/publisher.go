package websocket

// EventPublisher delivers events to the live connections of a user
type EventPublisher interface {
	Publish(userID int32, event Event)
}

// NoOpPublisher drops every event. Services use it until a hub is attached.
type NoOpPublisher struct{}

// Publish does nothing
func (NoOpPublisher) Publish(int32, Event) {}
