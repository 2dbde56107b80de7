package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/Eyoab11/kuriftu/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT UNIQUE NOT NULL,
		name TEXT DEFAULT '',
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID UNIQUE NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ DEFAULT NOW(),
		last_active_at TIMESTAMPTZ DEFAULT NOW(),
		message_count BIGINT DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		room_id UUID NOT NULL REFERENCES rooms(id),
		user_id UUID NOT NULL,
		body TEXT NOT NULL,
		is_user BOOLEAN NOT NULL,
		priority TEXT DEFAULT '',
		correlation_id TEXT DEFAULT '',
		ts BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		user_id UUID NOT NULL,
		rating INT NOT NULL,
		body TEXT NOT NULL,
		ts BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chat_messages_room_ts ON chat_messages(room_id, ts);
	CREATE INDEX IF NOT EXISTS idx_rooms_last_active ON rooms(last_active_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, email, name, passwordHash string, isAdmin bool) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, password_hash, is_admin, created_at
	`, email, name, passwordHash, isAdmin).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, is_admin, created_at
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, is_admin, created_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CreateRoom creates the room owned by userID, or returns the existing one.
// The unique constraint on user_id makes concurrent first-time resolves
// converge on a single room.
func (s *PostgresStore) CreateRoom(ctx context.Context, userID uuid.UUID) (*models.Room, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, err
	}

	return s.FindRoomByUser(ctx, userID)
}

// FindRoomByUser retrieves the room owned by userID, or (nil, nil).
func (s *PostgresStore) FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.Room, error) {
	room := &models.Room{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, last_active_at, message_count
		FROM rooms WHERE user_id = $1
	`, userID).Scan(
		&room.ID,
		&room.UserID,
		&room.CreatedAt,
		&room.LastActiveAt,
		&room.MessageCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// GetRoom retrieves a room by ID.
func (s *PostgresStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room := &models.Room{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, last_active_at, message_count
		FROM rooms WHERE id = $1
	`, id).Scan(
		&room.ID,
		&room.UserID,
		&room.CreatedAt,
		&room.LastActiveAt,
		&room.MessageCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// ListRooms retrieves all rooms, most recently active first.
func (s *PostgresStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, created_at, last_active_at, message_count
		FROM rooms
		ORDER BY last_active_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		err := rows.Scan(
			&room.ID,
			&room.UserID,
			&room.CreatedAt,
			&room.LastActiveAt,
			&room.MessageCount,
		)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// InsertMessage stores a chat message, assigning its id and timestamp, and
// bumps the room's activity counters.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, room_id, user_id, body, is_user, priority, correlation_id, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ID, msg.RoomID, msg.UserID, msg.Body, msg.IsUser, string(msg.Priority), msg.CorrelationID, msg.Timestamp)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE rooms
		SET message_count = message_count + 1, last_active_at = NOW()
		WHERE id = $1
	`, msg.RoomID)
	return err
}

// ListMessages retrieves the full message log for a room, ascending by
// creation time.
func (s *PostgresStore) ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, user_id, body, is_user, priority, correlation_id, ts
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY ts ASC, id ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		var roomUUID, userUUID uuid.UUID
		var priority string
		err := rows.Scan(
			&msg.ID,
			&roomUUID,
			&userUUID,
			&msg.Body,
			&msg.IsUser,
			&priority,
			&msg.CorrelationID,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		msg.RoomID = roomUUID.String()
		msg.UserID = userUUID.String()
		msg.Priority = models.Priority(priority)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// InsertFeedback stores a one-time feedback record.
func (s *PostgresStore) InsertFeedback(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = ulid.Make().String()
	}
	if fb.Timestamp == 0 {
		fb.Timestamp = time.Now().UnixMilli()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback (id, user_id, rating, body, ts)
		VALUES ($1, $2, $3, $4, $5)
	`, fb.ID, fb.UserID, fb.Rating, fb.Body, fb.Timestamp)
	return err
}
