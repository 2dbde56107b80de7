package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/Eyoab11/kuriftu/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func createTestUser(t *testing.T, s *SQLiteStore, email string) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), email, "Test Guest", "hash", false)
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createTestUser(t, s, "guest@example.com")

	byEmail, err := s.GetUserByEmail(ctx, "guest@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("lookup by email returned %+v", byEmail)
	}
	if byEmail.PasswordHash != "hash" {
		t.Fatal("password hash not persisted")
	}

	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byID == nil || byID.Email != "guest@example.com" {
		t.Fatalf("lookup by id returned %+v", byID)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatalf("expected (nil, nil) for a missing user, got %+v", user)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "guest@example.com")

	if _, err := s.CreateUser(context.Background(), "guest@example.com", "Again", "hash2", false); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestCreateRoomIsIdempotentPerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, s, "guest@example.com")

	first, err := s.CreateRoom(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateRoom(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the conflicting create to land on room %s, got %s", first.ID, second.ID)
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
}

func TestFindRoomByUserNotFound(t *testing.T) {
	s := newTestStore(t)

	room, err := s.FindRoomByUser(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if room != nil {
		t.Fatalf("expected (nil, nil) for a missing room, got %+v", room)
	}
}

func TestMessagesOrderedAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, s, "guest@example.com")
	room, err := s.CreateRoom(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		msg := &models.Message{
			RoomID:   room.ID.String(),
			UserID:   user.ID.String(),
			Body:     body,
			IsUser:   true,
			Priority: models.PriorityMedium,
		}
		if err := s.InsertMessage(ctx, msg); err != nil {
			t.Fatal(err)
		}
		if msg.ID == "" || msg.Timestamp == 0 {
			t.Fatal("InsertMessage must assign id and timestamp")
		}
	}

	msgs, err := s.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != len(bodies) {
		t.Fatalf("expected %d messages, got %d", len(bodies), len(msgs))
	}
	for i, body := range bodies {
		if msgs[i].Body != body {
			t.Fatalf("position %d: expected %q, got %q", i, body, msgs[i].Body)
		}
	}
	if msgs[0].Priority != models.PriorityMedium {
		t.Fatalf("priority not persisted, got %q", msgs[0].Priority)
	}
}

func TestInsertMessageBumpsRoomCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, s, "guest@example.com")
	room, err := s.CreateRoom(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		msg := &models.Message{RoomID: room.ID.String(), UserID: user.ID.String(), Body: "x", IsUser: true}
		if err := s.InsertMessage(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.MessageCount != 3 {
		t.Fatalf("expected message_count 3, got %d", got.MessageCount)
	}
}

func TestCorrelationIDSurvivesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, s, "guest@example.com")
	room, err := s.CreateRoom(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	msg := &models.Message{
		RoomID:        room.ID.String(),
		UserID:        user.ID.String(),
		Body:          "hello",
		IsUser:        true,
		CorrelationID: "client-cid-1",
	}
	if err := s.InsertMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].CorrelationID != "client-cid-1" {
		t.Fatalf("correlation id lost: %+v", msgs)
	}
}

func TestInsertFeedback(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "guest@example.com")

	fb := &models.Feedback{UserID: user.ID.String(), Rating: 4, Body: "great stay"}
	if err := s.InsertFeedback(context.Background(), fb); err != nil {
		t.Fatal(err)
	}
	if fb.ID == "" || fb.Timestamp == 0 {
		t.Fatal("InsertFeedback must assign id and timestamp")
	}
}
