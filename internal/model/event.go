package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the status of an event in the outbox pattern.
type EventStatus string

const (
	// EventStatusPending indicates the event has been created but not yet processed
	EventStatusPending EventStatus = "pending"
	// EventStatusProcessed indicates the event has been successfully processed
	EventStatusProcessed EventStatus = "processed"
	// EventStatusFailed indicates the event processing has failed
	EventStatusFailed EventStatus = "failed"
)

// Outbox event types.
const (
	EventProductCreated    = "product.created"
	EventProductUpdated    = "product.updated"
	EventProductDeleted    = "product.deleted"
	EventCourseCreated     = "course.created"
	EventCourseUpdated     = "course.updated"
	EventCourseDeleted     = "course.deleted"
	EventCourseEnrolled    = "course.enrolled"
	EventCourseUnenrolled  = "course.unenrolled"
	EventRoboGeniusCreated = "robogenius.created"
	EventRoboGeniusUpdated = "robogenius.updated"
	EventRoboGeniusDeleted = "robogenius.deleted"
	EventReviewCreated     = "review.created"
	EventReviewUpdated     = "review.updated"
	EventReviewDeleted     = "review.deleted"
)

// Event is an outbox record written in the same transaction as the change it describes.
type Event struct {
	ID          string      `json:"_id" bson:"_id"`
	EventType   string      `json:"eventType" bson:"eventType"`
	EventData   []byte      `json:"eventData" bson:"eventData"`
	Status      EventStatus `json:"status" bson:"status"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	ProcessedAt *time.Time  `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

// NewEvent marshals data into a pending event of the given type.
func NewEvent(eventType string, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return &Event{EventType: eventType, EventData: payload}, nil
}

// InitMeta initializes the event metadata including ID and timestamps.
func (e *Event) InitMeta() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if e.Status == "" {
		e.Status = EventStatusPending
	}
}

// GetID returns the event identity.
func (e *Event) GetID() string {
	return e.ID
}

// Touch is a no-op: events are append-only apart from their status.
func (e *Event) Touch() {}
