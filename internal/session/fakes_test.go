package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/Eyoab11/kuriftu/internal/models"
)

// fakeStore is an in-memory DataStore with per-call error injection.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	rooms    map[uuid.UUID]*models.Room // keyed by user id
	messages map[string][]models.Message
	feedback []models.Feedback

	findRoomErr      error
	createRoomErr    error
	insertMessageErr error
	listMessagesErr  error
	insertFeedback   error

	// one-shot hooks for interleaving races into a call
	listMessagesHook  func() // runs after the history snapshot is taken
	insertMessageHook func() // runs after the insert lands
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uuid.UUID]*models.User),
		rooms:    make(map[uuid.UUID]*models.Room),
		messages: make(map[string][]models.Message),
	}
}

func (f *fakeStore) Close()                       {}
func (f *fakeStore) Ping(_ context.Context) error { return nil }

func (f *fakeStore) CreateUser(_ context.Context, email, name, passwordHash string, isAdmin bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: uuid.New(), Email: email, Name: name, PasswordHash: passwordHash, IsAdmin: isAdmin, CreatedAt: time.Now()}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeStore) CreateRoom(_ context.Context, userID uuid.UUID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createRoomErr != nil {
		return nil, f.createRoomErr
	}
	// Conditional insert semantics: a second create returns the same row.
	if room, ok := f.rooms[userID]; ok {
		return room, nil
	}
	room := &models.Room{ID: uuid.New(), UserID: userID, CreatedAt: time.Now(), LastActiveAt: time.Now()}
	f.rooms[userID] = room
	return room, nil
}

func (f *fakeStore) FindRoomByUser(_ context.Context, userID uuid.UUID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findRoomErr != nil {
		return nil, f.findRoomErr
	}
	return f.rooms[userID], nil
}

func (f *fakeStore) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListRooms(_ context.Context) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		out = append(out, *room)
	}
	return out, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	if f.insertMessageErr != nil {
		f.mu.Unlock()
		return f.insertMessageErr
	}
	msg.ID = ulid.Make().String()
	msg.Timestamp = time.Now().UnixMilli()
	f.messages[msg.RoomID] = append(f.messages[msg.RoomID], *msg)
	f.mu.Unlock()

	if h := f.insertMessageHook; h != nil {
		f.insertMessageHook = nil
		h()
	}
	return nil
}

func (f *fakeStore) ListMessages(_ context.Context, roomID uuid.UUID) ([]models.Message, error) {
	f.mu.Lock()
	if f.listMessagesErr != nil {
		f.mu.Unlock()
		return nil, f.listMessagesErr
	}
	msgs := f.messages[roomID.String()]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	f.mu.Unlock()

	// The hook models a write racing the fetch: it runs after the snapshot
	// is taken, so anything it inserts is missing from the returned history.
	if h := f.listMessagesHook; h != nil {
		f.listMessagesHook = nil
		h()
	}
	return out, nil
}

func (f *fakeStore) InsertFeedback(_ context.Context, fb *models.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertFeedback != nil {
		return f.insertFeedback
	}
	fb.ID = ulid.Make().String()
	fb.Timestamp = time.Now().UnixMilli()
	f.feedback = append(f.feedback, *fb)
	return nil
}
