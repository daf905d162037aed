package notify

import (
	"fmt"

	"athletichub/internal/logger"
	"athletichub/internal/models"
)

type Publisher interface {
	PublishEventCreated(notification models.EventNotification) error
}

// Dispatcher hands event-creation notifications to the broker without ever
// blocking or failing the caller's response. Delivery to subscribers is the
// mailer's problem.
type Dispatcher struct {
	Publisher Publisher
	Logger    *logger.Logger
}

func NewDispatcher(publisher Publisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{Publisher: publisher, Logger: log}
}

// Dispatch returns immediately; the publish happens on its own goroutine and
// a failure is logged, not propagated.
func (d *Dispatcher) Dispatch(subscribers []string, event models.Event) {
	if d.Publisher == nil || len(subscribers) == 0 {
		return
	}

	notification := models.EventNotification{
		Subscribers: subscribers,
		EventID:     event.ID,
		Name:        event.Name,
		Category:    event.Category,
		Date:        event.Date,
		Location:    event.Location,
		CreatorName: event.CreatorName,
	}

	go func() {
		if err := d.Publisher.PublishEventCreated(notification); err != nil {
			if d.Logger != nil {
				d.Logger.Error("NOTIFY", fmt.Sprintf("failed to publish event-created notification for %s: %v", event.ID, err))
			}
			return
		}
		if d.Logger != nil {
			d.Logger.Info("NOTIFY", fmt.Sprintf("event-created notification queued for %d subscribers (event %s)", len(subscribers), event.ID))
		}
	}()
}
