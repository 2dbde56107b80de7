package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/Eyoab11/kuriftu/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/kuriftu.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/kuriftu.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT DEFAULT '',
		password_hash TEXT NOT NULL,
		is_admin INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		user_id TEXT UNIQUE NOT NULL REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_active_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		message_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		user_id TEXT NOT NULL,
		body TEXT NOT NULL,
		is_user INTEGER NOT NULL,
		priority TEXT DEFAULT '',
		correlation_id TEXT DEFAULT '',
		ts INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		body TEXT NOT NULL,
		ts INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_room_ts ON chat_messages(room_id, ts);
	CREATE INDEX IF NOT EXISTS idx_rooms_last_active ON rooms(last_active_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, name, passwordHash string, isAdmin bool) (*models.User, error) {
	id := uuid.New().String()
	now := time.Now()

	isAdminInt := 0
	if isAdmin {
		isAdminInt = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, email, name, passwordHash, isAdminInt, now)
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, uuid.MustParse(id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, is_admin, created_at
		FROM users WHERE email = ?
	`, email))
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, is_admin, created_at
		FROM users WHERE id = ?
	`, id.String()))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var idStr string
	var isAdminInt int
	err := row.Scan(
		&idStr,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&isAdminInt,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.ID = uuid.MustParse(idStr)
	user.IsAdmin = isAdminInt == 1
	return user, nil
}

// CreateRoom creates the room owned by userID, or returns the existing one.
// The unique index on user_id makes concurrent first-time resolves converge
// on a single room instead of racing check-then-act.
func (s *SQLiteStore) CreateRoom(ctx context.Context, userID uuid.UUID) (*models.Room, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, user_id, created_at, last_active_at, message_count)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(user_id) DO NOTHING
	`, id, userID.String(), now, now)
	if err != nil {
		return nil, err
	}

	return s.FindRoomByUser(ctx, userID)
}

// FindRoomByUser retrieves the room owned by userID, or (nil, nil).
func (s *SQLiteStore) FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.Room, error) {
	return s.scanRoom(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, last_active_at, message_count
		FROM rooms WHERE user_id = ?
	`, userID.String()))
}

// GetRoom retrieves a room by ID.
func (s *SQLiteStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return s.scanRoom(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, last_active_at, message_count
		FROM rooms WHERE id = ?
	`, id.String()))
}

func (s *SQLiteStore) scanRoom(row *sql.Row) (*models.Room, error) {
	room := &models.Room{}
	var idStr, userIDStr string
	err := row.Scan(
		&idStr,
		&userIDStr,
		&room.CreatedAt,
		&room.LastActiveAt,
		&room.MessageCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	room.ID = uuid.MustParse(idStr)
	room.UserID = uuid.MustParse(userIDStr)
	return room, nil
}

// ListRooms retrieves all rooms, most recently active first.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var idStr, userIDStr string
		err := rows.Scan(
			&idStr,
			&userIDStr,
			&room.CreatedAt,
			&room.LastActiveAt,
			&room.MessageCount,
		)
		if err != nil {
			return nil, err
		}
		room.ID = uuid.MustParse(idStr)
		room.UserID = uuid.MustParse(userIDStr)
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// InsertMessage stores a chat message, assigning its id and timestamp, and
// bumps the room's activity counters.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	isUserInt := 0
	if msg.IsUser {
		isUserInt = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, room_id, user_id, body, is_user, priority, correlation_id, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomID, msg.UserID, msg.Body, isUserInt, string(msg.Priority), msg.CorrelationID, msg.Timestamp)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE rooms
		SET message_count = message_count + 1, last_active_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, msg.RoomID)
	return err
}

// ListMessages retrieves the full message log for a room, ascending by
// creation time.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, user_id, body, is_user, priority, correlation_id, ts
		FROM chat_messages
		WHERE room_id = ?
		ORDER BY ts ASC, id ASC
	`, roomID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		var isUserInt int
		var priority string
		err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.UserID,
			&msg.Body,
			&isUserInt,
			&priority,
			&msg.CorrelationID,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		msg.IsUser = isUserInt == 1
		msg.Priority = models.Priority(priority)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// InsertFeedback stores a one-time feedback record.
func (s *SQLiteStore) InsertFeedback(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = ulid.Make().String()
	}
	if fb.Timestamp == 0 {
		fb.Timestamp = time.Now().UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, user_id, rating, body, ts)
		VALUES (?, ?, ?, ?, ?)
	`, fb.ID, fb.UserID, fb.Rating, fb.Body, fb.Timestamp)
	return err
}
