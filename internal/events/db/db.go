package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"athletichub/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	participants, err := d.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Participants = participants

	return &event, nil
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) EventExists(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

// ---------------- PARTICIPANT SET ----------------

// AddParticipant performs an atomic set-insert. The composite primary key on
// (event_id, email) plus ON CONFLICT DO NOTHING means a duplicate booking is
// a no-op; the returned bool says whether membership actually changed.
func (d *DB) AddParticipant(ctx context.Context, eventID, email string) (bool, error) {
	participant := models.Participant{
		EventID:  eventID,
		Email:    email,
		JoinedAt: time.Now(),
	}
	res, err := d.Bun.NewInsert().
		Model(&participant).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// RemoveParticipant performs an atomic set-remove; the returned bool says
// whether the participant was present.
func (d *DB) RemoveParticipant(ctx context.Context, eventID, email string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Participant)(nil)).
		Where("event_id = ?", eventID).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (d *DB) HasParticipant(ctx context.Context, eventID, email string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Participant)(nil)).
		Where("event_id = ?", eventID).
		Where("email = ?", email).
		Exists(ctx)
}

func (d *DB) ListParticipants(ctx context.Context, eventID string) ([]string, error) {
	var emails []string
	err := d.Bun.NewSelect().
		Model((*models.Participant)(nil)).
		Column("email").
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Scan(ctx, &emails)
	if err != nil {
		return nil, err
	}
	return emails, nil
}
