package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// EventSource identifies this service in published events.
	EventSource = "diploma-service"

	// EventVersion is the schema version stamped on every event.
	EventVersion = "1.0"
)

// Event types published by the degree lifecycle.
const (
	EventDegreeSubmitted = "degree.submitted"
	EventDegreeLinked    = "degree.linked"
	EventBatchIngested   = "degree.batch_ingested"
)

// Event is the envelope for all messages published to the event bus.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent creates an event envelope with identity and timing filled in.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// DegreeSubmittedEvent is emitted once for each degree that reaches the
// submitted state after batch confirmation.
type DegreeSubmittedEvent struct {
	DegreeID     uint   `json:"degree_id"`
	UniversityID uint   `json:"university_id"`
	StudentEmail string `json:"student_email"`
	DegreeType   string `json:"degree_type"`
	Major        string `json:"major"`
}

// DegreeLinkedEvent is emitted when a submitted degree is bound to a
// verified student account.
type DegreeLinkedEvent struct {
	DegreeID     uint   `json:"degree_id"`
	UniversityID uint   `json:"university_id"`
	UserID       uint   `json:"user_id"`
	StudentEmail string `json:"student_email"`
}

// BatchIngestedEvent is emitted after a bulk roster upload commits.
type BatchIngestedEvent struct {
	UniversityID uint `json:"university_id"`
	RecordCount  int  `json:"record_count"`
}

// EventPublisher abstracts the event bus so services can publish without
// knowing the transport.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
