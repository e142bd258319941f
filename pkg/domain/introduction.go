package domain

import "time"

// DefaultCollection is the collection introductions are stored in
const DefaultCollection = "introductions"

// Introduction is the record persisted by the gateway
type Introduction struct {
	Title string `json:"title" bson:"title"`
	Icon  string `json:"icon" bson:"icon"`
}

// Document is a stored document as returned by a listing.
// Documents in a collection are not required to share a shape.
type Document map[string]interface{}

// EventType identifies the kind of an introduction event
type EventType string

const (
	EventTypeIntroductionCreated EventType = "introduction.created"
)

// Event is published after a successful write
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	Collection string                 `json:"collection"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}
