package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"athletichub/internal/booking"
	"athletichub/internal/logger"
	"athletichub/internal/models"
	"athletichub/internal/utils"
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type SubscriberSource interface {
	ListEmails(ctx context.Context) ([]string, error)
}

type Notifier interface {
	Dispatch(subscribers []string, event models.Event)
}

type EventService struct {
	DB          DBLayer
	Subscribers SubscriberSource
	Notifier    Notifier
	Logger      *logger.Logger
}

func NewEventService(db DBLayer, subscribers SubscriberSource, notifier Notifier, log *logger.Logger) *EventService {
	return &EventService{DB: db, Subscribers: subscribers, Notifier: notifier, Logger: log}
}

func (s *EventService) Create(ctx context.Context, req models.EventRequest) (*models.Event, error) {
	if req.Name == "" || req.Category == "" || req.Date.IsZero() ||
		req.Description == "" || req.CreatorEmail == "" || req.CreatorName == "" {
		return nil, fmt.Errorf("%w: all required event fields must be provided", booking.ErrInvalidInput)
	}

	event := models.Event{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Category:     req.Category,
		Date:         req.Date,
		Description:  req.Description,
		CreatorEmail: utils.NormalizeEmail(req.CreatorEmail),
		CreatorName:  req.CreatorName,
		Location:     req.Location,
		Fee:          req.Fee,
		CreatedAt:    time.Now(),
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}

	s.notifySubscribers(ctx, event)

	return &event, nil
}

// notifySubscribers never fails the creation response: a subscriber lookup
// error means nobody gets notified, not that the event was not created.
func (s *EventService) notifySubscribers(ctx context.Context, event models.Event) {
	if s.Subscribers == nil || s.Notifier == nil {
		return
	}

	subscribers, err := s.Subscribers.ListEmails(ctx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("NOTIFY", fmt.Sprintf("failed to load subscribers for event %s: %v", event.ID, err))
		}
		return
	}

	s.Notifier.Dispatch(subscribers, event)
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: event id is required", booking.ErrInvalidInput)
	}

	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", booking.ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	return events, nil
}
