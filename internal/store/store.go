package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Eyoab11/kuriftu/internal/models"
)

// DataStore defines the interface for persistent storage of users, rooms,
// messages and one-time feedback. Both PostgresStore and SQLiteStore
// implement this interface. Lookups return (nil, nil) when the record does
// not exist; any non-nil error is a storage failure, never "not found".
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, email, name, passwordHash string, isAdmin bool) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// Room operations. CreateRoom is a conditional insert: on a user_id
	// conflict it returns the existing room, so concurrent first-time
	// resolves for the same user converge on a single room.
	CreateRoom(ctx context.Context, userID uuid.UUID) (*models.Room, error)
	FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)

	// Message operations. InsertMessage assigns the server id and
	// timestamp and bumps the room's activity counters. ListMessages
	// returns the full log ascending by creation time.
	InsertMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error)

	// One-time feedback
	InsertFeedback(ctx context.Context, fb *models.Feedback) error
}

// TokenStore resolves opaque bearer tokens to user ids. Implemented by
// RedisStore in production and MemoryTokenStore in development.
type TokenStore interface {
	SaveSession(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (uuid.UUID, error)
	DeleteSession(ctx context.Context, token string) error
}
