package subscribers

import (
	"context"
	"fmt"

	"athletichub/internal/booking"
	"athletichub/internal/utils"
)

type SubscriberDBLayer interface {
	AddSubscriber(ctx context.Context, email string) (bool, error)
	ListEmails(ctx context.Context) ([]string, error)
}

type SubscriberService struct {
	DB SubscriberDBLayer
}

func NewSubscriberService(db SubscriberDBLayer) *SubscriberService {
	return &SubscriberService{DB: db}
}

// Subscribe records a newsletter signup; the returned bool is false for a
// duplicate signup, which is not an error.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) (bool, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return false, fmt.Errorf("%w: email is required", booking.ErrInvalidInput)
	}

	added, err := s.DB.AddSubscriber(ctx, email)
	if err != nil {
		return false, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	return added, nil
}

func (s *SubscriberService) ListEmails(ctx context.Context) ([]string, error) {
	emails, err := s.DB.ListEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", booking.ErrStoreUnavailable, err)
	}
	return emails, nil
}
