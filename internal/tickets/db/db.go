package db

import (
	"context"

	"github.com/uptrace/bun"

	"athletichub/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// InsertTicket writes a ticket with ON CONFLICT DO NOTHING on the
// (event_id, participant_email) unique key. A losing racer observes
// inserted=false and no error: duplicate issuance is a benign no-op.
func (d *DB) InsertTicket(ctx context.Context, ticket models.Ticket) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(&ticket).
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

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketByBooking(ctx context.Context, eventID, email string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("event_id = ?", eventID).
		Where("participant_email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// DeleteTicketByBooking revokes a ticket; false means there was nothing to
// delete, which callers treat as "booking canceled, no ticket existed".
func (d *DB) DeleteTicketByBooking(ctx context.Context, eventID, email string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("participant_email = ?", email).
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

func (d *DB) ListTicketsByEvent(ctx context.Context, eventID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Order("issued_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
