package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Subscriber struct {
	bun.BaseModel `bun:"table:subscribers"`

	Email     string    `bun:"email,pk" json:"email"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
