package models

import (
	"time"

	"github.com/uptrace/bun"
)

const TicketStatusValid = "valid"

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID         string    `bun:"ticket_id,pk" json:"ticket_id"`
	EventID          string    `bun:"event_id,notnull,unique:tickets_event_participant" json:"event_id"`
	ParticipantEmail string    `bun:"participant_email,notnull,unique:tickets_event_participant" json:"participant_email"`
	QRCode           []byte    `bun:"qr_code" json:"qr_code,omitempty"`
	Status           string    `bun:"status,notnull" json:"status"`
	IssuedAt         time.Time `bun:"issued_at,notnull" json:"issued_at"`
}

// TicketPayload is what the QR code carries, encrypted.
type TicketPayload struct {
	TicketID string `json:"ticket_id"`
	EventID  string `json:"event_id"`
	Email    string `json:"email"`
}
