package model

import (
	"time"

	"github.com/google/uuid"
)

// Meta holds the identity and timestamps shared by every stored document.
type Meta struct {
	ID        string    `json:"_id" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// InitMeta assigns a new identity unless one is already set and stamps both timestamps.
func (m *Meta) InitMeta() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	m.CreatedAt = now
	m.UpdatedAt = now
}

// GetID returns the document identity.
func (m *Meta) GetID() string {
	return m.ID
}

// Touch moves UpdatedAt to now.
func (m *Meta) Touch() {
	m.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
}

// Image references a stored image file. It is owned by exactly one entity.
type Image struct {
	Filename string `json:"filename" bson:"filename"`
	URL      string `json:"url" bson:"url"`
}
