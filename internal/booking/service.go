package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"athletichub/internal/logger"
	"athletichub/internal/models"
	"athletichub/internal/utils"
)

type EventStore interface {
	EventExists(ctx context.Context, id string) (bool, error)
	AddParticipant(ctx context.Context, eventID, email string) (bool, error)
	RemoveParticipant(ctx context.Context, eventID, email string) (bool, error)
	HasParticipant(ctx context.Context, eventID, email string) (bool, error)
}

type TicketStore interface {
	Issue(ctx context.Context, eventID, email string) (*models.Ticket, error)
	ByBooking(ctx context.Context, eventID, email string) (*models.Ticket, error)
	Revoke(ctx context.Context, eventID, email string) (bool, error)
}

type Lock interface {
	Acquire(ctx context.Context, eventID, email, owner string) (bool, error)
	Release(ctx context.Context, eventID, email, owner string) error
}

type Publisher interface {
	PublishBookingCreated(ticket models.Ticket) error
	PublishBookingCancelled(eventID, email string) error
}

type BookingResult struct {
	EventID string `json:"event_id"`
	Email   string `json:"email"`
	// Added says whether the membership write changed the participant set.
	Added bool `json:"added"`
	// AlreadyBooked marks the idempotent path: the pair was booked before
	// this call and the existing ticket is returned.
	AlreadyBooked bool           `json:"already_booked"`
	Ticket        *models.Ticket `json:"ticket"`
}

type CancelResult struct {
	EventID string `json:"event_id"`
	Email   string `json:"email"`
	Removed bool   `json:"removed"`
	// TicketDeleted is false when the booking was canceled but no ticket
	// existed to revoke. That is a valid outcome, not an error.
	TicketDeleted bool `json:"ticket_deleted"`
}

const defaultStoreTimeout = 5 * time.Second

// Service is the booking engine: the only place where the event store and
// the ticket store must stay consistent without a cross-store transaction.
// Membership writes are single atomic statements, ticket ids are derived
// from the booking pair, and every read path repairs what a partial failure
// may have left behind.
type Service struct {
	Events  EventStore
	Tickets TicketStore
	Lock    Lock
	Kafka   Publisher
	Logger  *logger.Logger

	// StoreTimeout bounds each Book/Cancel/Ticket call; store calls surface
	// failure instead of hanging.
	StoreTimeout time.Duration
}

func NewService(events EventStore, tickets TicketStore, lock Lock, kafka Publisher, log *logger.Logger, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &Service{
		Events:       events,
		Tickets:      tickets,
		Lock:         lock,
		Kafka:        kafka,
		Logger:       log,
		StoreTimeout: storeTimeout,
	}
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.StoreTimeout)
}

func validateBooking(eventID, email string) error {
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: participant email is required", ErrInvalidInput)
	}
	return nil
}

func wrapStore(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Book adds the participant to the event and issues (or returns) the ticket
// for the pair. Repeated calls converge on the same state: one membership
// row, one ticket.
func (s *Service) Book(ctx context.Context, eventID, email string) (*BookingResult, error) {
	if err := validateBooking(eventID, email); err != nil {
		return nil, err
	}
	eventID = strings.TrimSpace(eventID)
	email = utils.NormalizeEmail(email)

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	exists, err := s.Events.EventExists(ctx, eventID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	// Best-effort lock. A failed acquire means an identical call is in
	// flight; both proceed and the conditional inserts pick one winner.
	if s.Lock != nil {
		owner := utils.GenerateUUID()
		acquired, lockErr := s.Lock.Acquire(ctx, eventID, email, owner)
		if lockErr != nil {
			if s.Logger != nil {
				s.Logger.Warn("BOOKING", fmt.Sprintf("lock acquire failed for event=%s email=%s: %v", eventID, email, lockErr))
			}
		} else if acquired {
			defer func() {
				if relErr := s.Lock.Release(ctx, eventID, email, owner); relErr != nil && s.Logger != nil {
					s.Logger.Warn("BOOKING", fmt.Sprintf("lock release failed for event=%s email=%s: %v", eventID, email, relErr))
				}
			}()
		}
	}

	added, err := s.Events.AddParticipant(ctx, eventID, email)
	if err != nil {
		return nil, wrapStore(err)
	}

	ticket, err := s.Tickets.ByBooking(ctx, eventID, email)
	if err == nil {
		// Already booked (or a previous Book lost its ticket write and a
		// racer repaired it): hand back the existing ticket, never re-issue.
		if s.Logger != nil && !added {
			s.Logger.LogBooking("BOOK", eventID, email, "already booked, returning existing ticket")
		}
		return &BookingResult{
			EventID:       eventID,
			Email:         email,
			Added:         added,
			AlreadyBooked: !added,
			Ticket:        ticket,
		}, nil
	}
	if !errors.Is(err, ErrTicketNotFound) {
		return nil, err
	}

	ticket, err = s.Tickets.Issue(ctx, eventID, email)
	if err != nil {
		return nil, err
	}

	if s.Kafka != nil {
		if pubErr := s.Kafka.PublishBookingCreated(*ticket); pubErr != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("booking-created publish failed for %s: %v", ticket.TicketID, pubErr))
		}
	}

	if s.Logger != nil {
		s.Logger.LogBooking("BOOK", eventID, email, "booking confirmed")
	}

	return &BookingResult{
		EventID:       eventID,
		Email:         email,
		Added:         added,
		AlreadyBooked: !added,
		Ticket:        ticket,
	}, nil
}

// Cancel removes the participant and revokes the ticket. A cancel that
// removed nothing reports ErrBookingNotFound and leaves the ticket store
// untouched.
func (s *Service) Cancel(ctx context.Context, eventID, email string) (*CancelResult, error) {
	if err := validateBooking(eventID, email); err != nil {
		return nil, err
	}
	eventID = strings.TrimSpace(eventID)
	email = utils.NormalizeEmail(email)

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	removed, err := s.Events.RemoveParticipant(ctx, eventID, email)
	if err != nil {
		return nil, wrapStore(err)
	}
	if !removed {
		return nil, fmt.Errorf("%w: event=%s email=%s", ErrBookingNotFound, eventID, email)
	}

	deleted, err := s.Tickets.Revoke(ctx, eventID, email)
	if err != nil {
		// Membership is already gone; the stale ticket is an orphan that the
		// read path cleans up lazily. The cancel itself succeeded.
		if s.Logger != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("ticket revoke failed after cancel for event=%s email=%s: %v", eventID, email, err))
		}
		deleted = false
	}

	if s.Kafka != nil {
		if pubErr := s.Kafka.PublishBookingCancelled(eventID, email); pubErr != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("booking-cancelled publish failed for event=%s email=%s: %v", eventID, email, pubErr))
		}
	}

	if s.Logger != nil {
		s.Logger.LogBooking("CANCEL", eventID, email, fmt.Sprintf("booking canceled (ticket deleted: %t)", deleted))
	}

	return &CancelResult{
		EventID:       eventID,
		Email:         email,
		Removed:       true,
		TicketDeleted: deleted,
	}, nil
}

// Ticket is the read path with read-repair: an orphaned ticket (participant
// no longer booked) is cleaned up and reported missing; a booked participant
// with no ticket gets one re-issued instead of an error.
func (s *Service) Ticket(ctx context.Context, eventID, email string) (*models.Ticket, error) {
	if err := validateBooking(eventID, email); err != nil {
		return nil, err
	}
	eventID = strings.TrimSpace(eventID)
	email = utils.NormalizeEmail(email)

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	ticket, err := s.Tickets.ByBooking(ctx, eventID, email)
	if err == nil {
		booked, memberErr := s.Events.HasParticipant(ctx, eventID, email)
		if memberErr != nil {
			// Repair is best-effort; the ticket itself was found.
			if s.Logger != nil {
				s.Logger.Warn("BOOKING", fmt.Sprintf("membership check failed during ticket lookup for event=%s email=%s: %v", eventID, email, memberErr))
			}
			return ticket, nil
		}
		if !booked {
			if _, revokeErr := s.Tickets.Revoke(ctx, eventID, email); revokeErr != nil && s.Logger != nil {
				s.Logger.Warn("BOOKING", fmt.Sprintf("orphan ticket cleanup failed for event=%s email=%s: %v", eventID, email, revokeErr))
			}
			if s.Logger != nil {
				s.Logger.LogBooking("REPAIR", eventID, email, "orphan ticket removed")
			}
			return nil, fmt.Errorf("%w: event=%s email=%s", ErrTicketNotFound, eventID, email)
		}
		return ticket, nil
	}
	if !errors.Is(err, ErrTicketNotFound) {
		return nil, err
	}

	booked, memberErr := s.Events.HasParticipant(ctx, eventID, email)
	if memberErr != nil {
		return nil, wrapStore(memberErr)
	}
	if !booked {
		return nil, err
	}

	// Booked but ticketless: a Book call's ticket write failed. Re-issue.
	if s.Logger != nil {
		s.Logger.LogBooking("REPAIR", eventID, email, "booked participant had no ticket, re-issuing")
	}
	return s.Tickets.Issue(ctx, eventID, email)
}
