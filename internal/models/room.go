package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is the single persistent channel pairing one guest with the admin.
// At most one room exists per user, enforced by a unique index on user_id.
type Room struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	MessageCount int64     `json:"message_count"`
}
