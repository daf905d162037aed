package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"athletichub/internal/booking"
	"athletichub/internal/logger"
	"athletichub/internal/models"
	"athletichub/internal/tickets/qr"
	"athletichub/internal/utils"
)

type TicketDBLayer interface {
	InsertTicket(ctx context.Context, ticket models.Ticket) (bool, error)
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	GetTicketByBooking(ctx context.Context, eventID, email string) (*models.Ticket, error)
	DeleteTicketByBooking(ctx context.Context, eventID, email string) (bool, error)
	ListTicketsByEvent(ctx context.Context, eventID string) ([]models.Ticket, error)
}

type TicketService struct {
	DB     TicketDBLayer
	QR     *qr.Generator
	Logger *logger.Logger
}

func NewTicketService(db TicketDBLayer, qrGen *qr.Generator, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, QR: qrGen, Logger: log}
}

// Issue creates the ticket for a booking. The id is content-derived from
// (eventID, email), so two racing issuers compute the same id and the unique
// key picks one winner; the loser returns the winner's row.
func (s *TicketService) Issue(ctx context.Context, eventID, email string) (*models.Ticket, error) {
	ticketID := utils.TicketID(eventID, email)

	qrBytes, err := s.QR.Generate(models.TicketPayload{
		TicketID: ticketID,
		EventID:  eventID,
		Email:    email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR: %w", err)
	}

	ticket := models.Ticket{
		TicketID:         ticketID,
		EventID:          eventID,
		ParticipantEmail: email,
		QRCode:           qrBytes,
		Status:           models.TicketStatusValid,
		IssuedAt:         time.Now(),
	}

	inserted, err := s.DB.InsertTicket(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	if !inserted {
		// A concurrent Book won the insert; hand back its ticket.
		return s.ByBooking(ctx, eventID, email)
	}

	if s.Logger != nil {
		s.Logger.LogBooking("ISSUE", eventID, email, fmt.Sprintf("ticket %s issued", ticketID))
	}

	return &ticket, nil
}

func (s *TicketService) ByBooking(ctx context.Context, eventID, email string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByBooking(ctx, eventID, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: event=%s email=%s", booking.ErrTicketNotFound, eventID, email)
		}
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	return ticket, nil
}

func (s *TicketService) ByID(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", booking.ErrTicketNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	return ticket, nil
}

// Revoke deletes the ticket for a booking. Absence is not an error.
func (s *TicketService) Revoke(ctx context.Context, eventID, email string) (bool, error) {
	deleted, err := s.DB.DeleteTicketByBooking(ctx, eventID, email)
	if err != nil {
		return false, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	if deleted && s.Logger != nil {
		s.Logger.LogBooking("REVOKE", eventID, email, "ticket deleted")
	}
	return deleted, nil
}

func (s *TicketService) ListByEvent(ctx context.Context, eventID string) ([]models.Ticket, error) {
	tickets, err := s.DB.ListTicketsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	return tickets, nil
}

// Decode recovers the ticket payload from an encrypted QR string.
func (s *TicketService) Decode(encoded string) (*models.TicketPayload, error) {
	return s.QR.DecryptPayload(encoded)
}
