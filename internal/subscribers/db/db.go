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

// AddSubscriber inserts a signup; re-subscribing the same email is a no-op.
func (d *DB) AddSubscriber(ctx context.Context, email string) (bool, error) {
	subscriber := models.Subscriber{
		Email:     email,
		CreatedAt: time.Now(),
	}
	res, err := d.Bun.NewInsert().
		Model(&subscriber).
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

func (d *DB) ListEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := d.Bun.NewSelect().
		Model((*models.Subscriber)(nil)).
		Column("email").
		Order("created_at ASC").
		Scan(ctx, &emails)
	if err != nil {
		return nil, err
	}
	return emails, nil
}
