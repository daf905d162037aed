package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           string    `bun:"id,pk" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Category     string    `bun:"category,notnull" json:"category"`
	Date         time.Time `bun:"date,notnull" json:"date"`
	Description  string    `bun:"description" json:"description"`
	CreatorEmail string    `bun:"creator_email,notnull" json:"creator_email"`
	CreatorName  string    `bun:"creator_name,notnull" json:"creator_name"`
	Location     string    `bun:"location" json:"location"`
	Fee          float64   `bun:"fee,nullzero" json:"fee,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`

	// Loaded from event_participants, never written through this model.
	Participants []string `bun:"-" json:"participants,omitempty"`
}

// Participant is one row of an event's participant set. The composite
// primary key makes set-insert and set-remove single atomic statements.
type Participant struct {
	bun.BaseModel `bun:"table:event_participants"`

	EventID  string    `bun:"event_id,pk" json:"event_id"`
	Email    string    `bun:"email,pk" json:"email"`
	JoinedAt time.Time `bun:"joined_at,notnull" json:"joined_at"`
}

type EventRequest struct {
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	CreatorEmail string    `json:"creator_email"`
	CreatorName  string    `json:"creator_name"`
	Location     string    `json:"location"`
	Fee          float64   `json:"fee,omitempty"`
}

// EventNotification is the message published for an external mailer after
// an event is created. Rendering and delivery happen outside this service.
type EventNotification struct {
	Subscribers []string  `json:"subscribers"`
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	CreatorName string    `json:"creator_name"`
}
