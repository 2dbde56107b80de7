package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Eyoab11/kuriftu/internal/metrics"
	"github.com/Eyoab11/kuriftu/internal/models"
	"github.com/Eyoab11/kuriftu/internal/push"
	"github.com/Eyoab11/kuriftu/internal/store"
)

// State carries the render inputs for one guest's session: the ordered
// message log, the notification flags and the loading/ready condition.
type State struct {
	Open     bool             `json:"open"`
	Loading  bool             `json:"loading"`
	RoomID   string           `json:"room_id,omitempty"`
	Messages []models.Message `json:"messages"`
	Flags    Flags            `json:"flags"`
}

// Session coordinates one guest's chat and feedback intents. It is
// constructed per user, owns its stream and notifier, and holds no state
// shared with other sessions.
type Session struct {
	userID uuid.UUID
	store  store.DataStore

	notifier *Notifier
	stream   *Stream

	mu        sync.Mutex
	roomID    uuid.UUID
	resolving bool
	open      bool
	touched   time.Time

	updates chan struct{}
}

// Option configures a Session.
type Option func(*options)

type options struct {
	sendDwell  time.Duration
	replyDwell time.Duration
}

// WithDwell overrides the cue dwell times, mainly for tests.
func WithDwell(send, reply time.Duration) Option {
	return func(o *options) {
		o.sendDwell = send
		o.replyDwell = reply
	}
}

// New creates a session for the given user.
func New(userID uuid.UUID, st store.DataStore, broker push.Broker, opts ...Option) *Session {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		userID:  userID,
		store:   st,
		touched: time.Now(),
		updates: make(chan struct{}, 1),
	}
	s.notifier = NewNotifier(o.sendDwell, o.replyDwell, func(Flags) { s.signal() })
	s.stream = NewStream(st, broker, s.notifier, s.signal)
	return s
}

// OpenChat resolves the user's room (creating it on first open) and
// attaches the message stream. While resolution is in flight the session
// reports Loading and rejects sends.
func (s *Session) OpenChat(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return s.State(), nil
	}
	if s.resolving {
		s.mu.Unlock()
		return State{Loading: true, Messages: []models.Message{}}, nil
	}
	s.resolving = true
	s.mu.Unlock()

	room, err := s.resolveRoom(ctx)
	if err != nil {
		s.endResolve()
		return State{}, err
	}

	if err := s.stream.Attach(ctx, room.ID); err != nil {
		s.endResolve()
		return State{}, err
	}

	s.mu.Lock()
	s.roomID = room.ID
	s.open = true
	s.resolving = false
	s.mu.Unlock()

	metrics.SessionsOpen.Inc()
	s.signal()
	return s.State(), nil
}

// resolveRoom is the get-or-create step. Lookup failures other than
// "not found" abort without creating, so transient errors are never
// masked as a missing room.
func (s *Session) resolveRoom(ctx context.Context) (*models.Room, error) {
	room, err := s.store.FindRoomByUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if room != nil {
		return room, nil
	}

	// Conditional insert; a concurrent resolve for the same user lands on
	// the same row.
	room, err = s.store.CreateRoom(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return room, nil
}

func (s *Session) endResolve() {
	s.mu.Lock()
	s.resolving = false
	s.mu.Unlock()
}

// SendMessage delegates a chat send to the stream. Rejected with ErrNotReady
// while the room is unresolved or resolution is in flight.
func (s *Session) SendMessage(ctx context.Context, text string, rating int) (*models.Message, error) {
	s.mu.Lock()
	if s.resolving || !s.open {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.mu.Unlock()

	return s.stream.Send(ctx, s.userID, text, rating)
}

// SubmitFeedback validates and persists a one-shot rated comment,
// independent of any room.
func (s *Session) SubmitFeedback(ctx context.Context, rating int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: feedback text is empty", ErrInvalidInput)
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, models.ErrInvalidRating)
	}

	fb := &models.Feedback{
		UserID: s.userID.String(),
		Rating: rating,
		Body:   text,
	}
	if err := s.store.InsertFeedback(ctx, fb); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	s.notifier.FeedbackSubmitted()
	return nil
}

// CloseChat detaches the stream, clears the room state and hides every cue.
func (s *Session) CloseChat() {
	s.mu.Lock()
	wasOpen := s.open
	s.open = false
	s.roomID = uuid.Nil
	s.mu.Unlock()

	s.stream.Detach()
	s.notifier.Reset()

	if wasOpen {
		metrics.SessionsOpen.Dec()
	}
	s.signal()
}

// State returns the current render inputs.
func (s *Session) State() State {
	s.mu.Lock()
	open := s.open
	loading := s.resolving
	roomID := ""
	if s.roomID != uuid.Nil {
		roomID = s.roomID.String()
	}
	s.mu.Unlock()

	return State{
		Open:     open,
		Loading:  loading,
		RoomID:   roomID,
		Messages: s.stream.Snapshot(),
		Flags:    s.notifier.Flags(),
	}
}

// UserID returns the session's owner.
func (s *Session) UserID() uuid.UUID {
	return s.userID
}

// Touch records activity, deferring idle eviction.
func (s *Session) Touch() {
	s.mu.Lock()
	s.touched = time.Now()
	s.mu.Unlock()
}

// LastActive returns the time of the most recent activity.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Updates returns a channel that coalesces change signals for the live
// event feed. Receivers should re-read State after each signal.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
