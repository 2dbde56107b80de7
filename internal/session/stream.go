package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/Eyoab11/kuriftu/internal/models"
	"github.com/Eyoab11/kuriftu/internal/push"
	"github.com/Eyoab11/kuriftu/internal/store"
)

// Stream owns the live ordered message log for one attached room. It loads
// the full history on attach, appends pushed inserts at the tail, and
// reconciles a user's own optimistic appends with their pushed echoes by
// correlation id.
type Stream struct {
	store  store.DataStore
	broker push.Broker
	notify *Notifier

	mu        sync.Mutex
	roomID    uuid.UUID
	attached  bool
	attaching bool
	rating    int // fixed by the first rated send of the conversation
	log       []models.Message
	backlog   []models.Message    // inserts delivered while the history fetch is in flight
	pending   map[string]struct{} // correlation ids awaiting their echo
	seen      map[string]struct{} // server ids, guards at-least-once redelivery
	sub       push.Subscription
	onChange  func()
}

// NewStream creates a detached stream.
func NewStream(st store.DataStore, broker push.Broker, notify *Notifier, onChange func()) *Stream {
	return &Stream{
		store:    st,
		broker:   broker,
		notify:   notify,
		onChange: onChange,
		pending:  make(map[string]struct{}),
		seen:     make(map[string]struct{}),
	}
}

// Attach loads the room's full history (a replace, not a merge) and opens
// the push subscription. The subscription is opened before the history
// fetch, and inserts delivered while the fetch is in flight are held in a
// backlog and merged after the swap, so a row published between the fetch
// snapshot and the swap is never lost.
func (s *Stream) Attach(ctx context.Context, roomID uuid.UUID) error {
	s.mu.Lock()
	s.roomID = roomID
	s.attaching = true
	s.backlog = nil
	s.mu.Unlock()

	sub, err := s.broker.Subscribe(ctx, roomID.String(), s.receive)
	if err != nil {
		s.abortAttach()
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	history, err := s.store.ListMessages(ctx, roomID)
	if err != nil {
		sub.Close()
		s.abortAttach()
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	s.attached = true
	s.attaching = false
	s.log = history
	s.pending = make(map[string]struct{})
	s.seen = make(map[string]struct{}, len(history))
	for _, msg := range history {
		s.seen[msg.ID] = struct{}{}
	}
	// Merge inserts that raced the fetch. Rows the fetch already saw are
	// dropped by the seen set.
	fromAdmin := false
	for _, msg := range s.backlog {
		if _, dup := s.seen[msg.ID]; dup {
			continue
		}
		s.log = append(s.log, msg)
		s.seen[msg.ID] = struct{}{}
		if !msg.IsUser {
			fromAdmin = true
		}
	}
	s.backlog = nil
	s.sub = sub
	s.mu.Unlock()

	if fromAdmin {
		s.notify.ReplyReceived()
	}
	s.changed()
	return nil
}

func (s *Stream) abortAttach() {
	s.mu.Lock()
	s.attaching = false
	s.backlog = nil
	s.roomID = uuid.Nil
	s.mu.Unlock()
}

// Send validates, classifies, persists and then optimistically appends a
// guest message. The append happens only after persistence succeeds, so a
// failed send never leaves a ghost entry in the log.
func (s *Stream) Send(ctx context.Context, userID uuid.UUID, text string, rating int) (*models.Message, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	if text == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: message text is empty", ErrInvalidInput)
	}

	effective := rating
	if effective == 0 {
		effective = s.rating
	}
	if effective == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: a rating is required", ErrInvalidInput)
	}
	priority, err := models.ClassifyRating(effective)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.rating == 0 {
		s.rating = effective
	}
	roomID := s.roomID
	s.mu.Unlock()

	msg := &models.Message{
		RoomID:        roomID.String(),
		UserID:        userID.String(),
		Body:          text,
		IsUser:        true,
		Priority:      priority,
		CorrelationID: ulid.Make().String(),
	}

	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	s.mu.Lock()
	attached := s.attached
	if attached {
		if _, dup := s.seen[msg.ID]; !dup {
			s.log = append(s.log, *msg)
			s.seen[msg.ID] = struct{}{}
			s.pending[msg.CorrelationID] = struct{}{}
		}
	}
	s.mu.Unlock()

	// A detach that landed between persistence and here means the chat is
	// closed: the message is stored, but no cues fire for it.
	if attached {
		s.notify.MessageSent()
		s.changed()
	}

	// Fan out to other attached listeners. The message is already
	// persisted; our own echo comes back through receive and is dropped
	// by its correlation id.
	_ = s.broker.Publish(ctx, msg)

	return msg, nil
}

// receive handles one pushed insert from the subscription.
func (s *Stream) receive(msg models.Message) {
	s.mu.Lock()
	if msg.RoomID != s.roomID.String() {
		s.mu.Unlock()
		return
	}
	if s.attaching {
		s.backlog = append(s.backlog, msg)
		s.mu.Unlock()
		return
	}
	if !s.attached {
		s.mu.Unlock()
		return
	}

	// Own echo of an optimistic append: the entry is already in the log
	// under the same server id, so confirm and drop.
	if msg.CorrelationID != "" {
		if _, ok := s.pending[msg.CorrelationID]; ok {
			delete(s.pending, msg.CorrelationID)
			s.seen[msg.ID] = struct{}{}
			s.mu.Unlock()
			return
		}
	}

	// At-least-once transport: drop duplicate deliveries of the same row.
	if _, dup := s.seen[msg.ID]; dup {
		s.mu.Unlock()
		return
	}

	s.log = append(s.log, msg)
	s.seen[msg.ID] = struct{}{}
	fromAdmin := !msg.IsUser
	s.mu.Unlock()

	if fromAdmin {
		s.notify.ReplyReceived()
	}
	s.changed()
}

// Detach closes the subscription and discards the log. The next Attach
// reloads authoritatively from storage.
func (s *Stream) Detach() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.attached = false
	s.attaching = false
	s.roomID = uuid.Nil
	s.rating = 0
	s.log = nil
	s.backlog = nil
	s.pending = make(map[string]struct{})
	s.seen = make(map[string]struct{})
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Snapshot returns a copy of the ordered message log.
func (s *Stream) Snapshot() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.log))
	copy(out, s.log)
	return out
}

// Attached reports whether the stream currently owns a room.
func (s *Stream) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

func (s *Stream) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
