package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Eyoab11/kuriftu/internal/push"
)

func TestOpenChatCreatesRoomOnce(t *testing.T) {
	st := newFakeStore()
	broker := push.NewMemoryBroker()
	userID := uuid.New()
	s := New(userID, st, broker)

	state, err := s.OpenChat(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !state.Open || state.Loading {
		t.Fatalf("expected open state, got %+v", state)
	}
	if state.RoomID == "" {
		t.Fatal("expected a resolved room id")
	}

	// A second open is idempotent: same room, no second row.
	again, err := s.OpenChat(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again.RoomID != state.RoomID {
		t.Fatalf("expected the same room, got %s then %s", state.RoomID, again.RoomID)
	}
	if len(st.rooms) != 1 {
		t.Fatalf("expected exactly one room, got %d", len(st.rooms))
	}
}

func TestOpenChatReusesExistingRoom(t *testing.T) {
	st := newFakeStore()
	broker := push.NewMemoryBroker()
	userID := uuid.New()

	room, err := st.CreateRoom(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}

	s := New(userID, st, broker)
	state, err := s.OpenChat(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.RoomID != room.ID.String() {
		t.Fatalf("expected existing room %s, got %s", room.ID, state.RoomID)
	}
}

func TestOpenChatLookupFailureDoesNotCreate(t *testing.T) {
	st := newFakeStore()
	broker := push.NewMemoryBroker()
	s := New(uuid.New(), st, broker)

	st.findRoomErr = errors.New("db down")
	if _, err := s.OpenChat(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if len(st.rooms) != 0 {
		t.Fatal("a failed lookup must never fall through to create")
	}

	// The failure is not sticky: once storage recovers the open succeeds.
	st.findRoomErr = nil
	if _, err := s.OpenChat(context.Background()); err != nil {
		t.Fatalf("open after recovery failed: %v", err)
	}
}

func TestSendBeforeOpenIsNotReady(t *testing.T) {
	st := newFakeStore()
	s := New(uuid.New(), st, push.NewMemoryBroker())

	if _, err := s.SendMessage(context.Background(), "hello", 3); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestSendAndReplyRoundTrip(t *testing.T) {
	st := newFakeStore()
	broker := push.NewMemoryBroker()
	userID := uuid.New()
	s := New(userID, st, broker, WithDwell(time.Minute, time.Minute))

	state, err := s.OpenChat(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	msg, err := s.SendMessage(context.Background(), "the AC is broken", 1)
	if err != nil {
		t.Fatal(err)
	}
	if msg.RoomID != state.RoomID {
		t.Fatalf("message landed in %s, expected %s", msg.RoomID, state.RoomID)
	}

	got := s.State()
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got.Messages))
	}
	if !got.Flags.SendConfirmed || !got.Flags.WaitingForReply {
		t.Fatalf("expected send cues, got %+v", got.Flags)
	}

	// Admin replies through the same path the HTTP handler uses: persist,
	// then publish.
	roomID := uuid.MustParse(state.RoomID)
	reply := seedMessage(t, st, roomID, "maintenance is on the way", false)
	if err := broker.Publish(context.Background(), &reply); err != nil {
		t.Fatal(err)
	}

	got = s.State()
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Flags.WaitingForReply {
		t.Fatal("admin reply must clear WaitingForReply")
	}
	if !got.Flags.ReplyReceived {
		t.Fatal("expected ReplyReceived cue")
	}
}

func TestSubmitFeedback(t *testing.T) {
	st := newFakeStore()
	s := New(uuid.New(), st, push.NewMemoryBroker(), WithDwell(time.Minute, time.Minute))

	if err := s.SubmitFeedback(context.Background(), 0, "great stay"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("rating 0: expected ErrInvalidInput, got %v", err)
	}
	if err := s.SubmitFeedback(context.Background(), 4, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank text: expected ErrInvalidInput, got %v", err)
	}
	if len(st.feedback) != 0 {
		t.Fatal("rejected feedback must not persist")
	}

	if err := s.SubmitFeedback(context.Background(), 4, "great stay"); err != nil {
		t.Fatal(err)
	}
	if len(st.feedback) != 1 {
		t.Fatalf("expected 1 feedback row, got %d", len(st.feedback))
	}

	flags := s.State().Flags
	if !flags.SendConfirmed {
		t.Fatal("expected SendConfirmed after feedback")
	}
	if flags.WaitingForReply {
		t.Fatal("feedback must not enter the waiting state")
	}
}

func TestSubmitFeedbackWorksWithoutOpenChat(t *testing.T) {
	st := newFakeStore()
	s := New(uuid.New(), st, push.NewMemoryBroker())

	// Feedback is room-independent: no OpenChat first.
	if err := s.SubmitFeedback(context.Background(), 5, "lovely pool"); err != nil {
		t.Fatal(err)
	}
	if len(st.feedback) != 1 {
		t.Fatalf("expected 1 feedback row, got %d", len(st.feedback))
	}
}

func TestCloseChatClearsEverything(t *testing.T) {
	st := newFakeStore()
	broker := push.NewMemoryBroker()
	s := New(uuid.New(), st, broker, WithDwell(time.Minute, time.Minute))

	if _, err := s.OpenChat(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendMessage(context.Background(), "hello", 3); err != nil {
		t.Fatal(err)
	}

	s.CloseChat()

	state := s.State()
	if state.Open {
		t.Fatal("expected closed state")
	}
	if state.RoomID != "" {
		t.Fatal("expected cleared room id")
	}
	if len(state.Messages) != 0 {
		t.Fatal("expected discarded log")
	}
	if state.Flags.SendConfirmed || state.Flags.ReplyReceived || state.Flags.WaitingForReply {
		t.Fatalf("expected all cues hidden, got %+v", state.Flags)
	}

	// Leaving clears waiting for good: reopening does not revive it.
	state, err := s.OpenChat(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.Flags.WaitingForReply {
		t.Fatal("reopen must not revive WaitingForReply")
	}
	if len(state.Messages) != 1 {
		t.Fatalf("expected persisted history of 1 message after reopen, got %d", len(state.Messages))
	}
}

func TestUpdatesSignalOnChange(t *testing.T) {
	st := newFakeStore()
	s := New(uuid.New(), st, push.NewMemoryBroker())

	if _, err := s.OpenChat(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-s.Updates():
	case <-time.After(time.Second):
		t.Fatal("expected an update signal after OpenChat")
	}

	if _, err := s.SendMessage(context.Background(), "ping", 3); err != nil {
		t.Fatal(err)
	}
	select {
	case <-s.Updates():
	case <-time.After(time.Second):
		t.Fatal("expected an update signal after SendMessage")
	}
}

func TestManagerReusesSessions(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st, push.NewMemoryBroker())
	userID := uuid.New()

	a := m.Get(userID)
	b := m.Get(userID)
	if a != b {
		t.Fatal("expected the same session for the same user")
	}
	if m.Get(uuid.New()) == a {
		t.Fatal("expected distinct sessions for distinct users")
	}

	m.Release(userID)
	if m.Get(userID) == a {
		t.Fatal("expected a fresh session after release")
	}
}

func TestManagerReapsIdleSessions(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st, push.NewMemoryBroker())
	userID := uuid.New()

	s := m.Get(userID)
	if _, err := s.OpenChat(context.Background()); err != nil {
		t.Fatal(err)
	}

	if n := m.ReapIdle(time.Hour); n != 0 {
		t.Fatalf("recently active session must survive, reaped %d", n)
	}
	if m.Get(userID) != s {
		t.Fatal("surviving session must be the same instance")
	}

	// A zero allowance makes any session idle.
	time.Sleep(10 * time.Millisecond)
	if n := m.ReapIdle(0); n != 1 {
		t.Fatalf("expected 1 reaped session, got %d", n)
	}
	if s.State().Open {
		t.Fatal("reaping must close the chat")
	}
	if m.Get(userID) == s {
		t.Fatal("expected a fresh session after reaping")
	}
}
