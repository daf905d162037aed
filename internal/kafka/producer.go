package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"athletichub/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

// Publish writes one message to a topic, keyed for per-booking ordering.
func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishBookingCreated streams a ticket issuance to Kafka.
func (p *Producer) PublishBookingCreated(ticket models.Ticket) error {
	msgBytes, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return p.Publish(TopicBookingCreated, ticket.EventID+":"+ticket.ParticipantEmail, msgBytes)
}

// PublishBookingCancelled streams a booking cancellation to Kafka.
func (p *Producer) PublishBookingCancelled(eventID, email string) error {
	msgBytes, err := json.Marshal(map[string]string{
		"event_id": eventID,
		"email":    email,
	})
	if err != nil {
		return err
	}
	return p.Publish(TopicBookingCancelled, eventID+":"+email, msgBytes)
}

// PublishEventCreated streams an event-creation notification for the mailer.
func (p *Producer) PublishEventCreated(notification models.EventNotification) error {
	msgBytes, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return p.Publish(TopicEventCreated, notification.EventID, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
