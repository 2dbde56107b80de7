package push

import (
	"context"
	"sync"

	"github.com/Eyoab11/kuriftu/internal/models"
)

// MemoryBroker is an in-process Broker used in development and tests,
// when no Redis instance is configured.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string][]*memorySubscription
	next int
}

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]*memorySubscription)}
}

// Publish delivers msg to every subscriber of its room, synchronously and
// in subscription order, preserving the per-room ordering guarantee.
func (b *MemoryBroker) Publish(_ context.Context, msg *models.Message) error {
	b.mu.RLock()
	subs := make([]*memorySubscription, len(b.subs[msg.RoomID]))
	copy(subs, b.subs[msg.RoomID])
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(*msg)
	}
	return nil
}

// Subscribe registers fn for inserts on the given room.
func (b *MemoryBroker) Subscribe(_ context.Context, roomID string, fn func(models.Message)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	sub := &memorySubscription{broker: b, roomID: roomID, id: b.next, fn: fn}
	b.subs[roomID] = append(b.subs[roomID], sub)
	return sub, nil
}

type memorySubscription struct {
	broker *MemoryBroker
	roomID string
	id     int
	fn     func(models.Message)
}

func (s *memorySubscription) Close() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	subs := s.broker.subs[s.roomID]
	for i, sub := range subs {
		if sub.id == s.id {
			s.broker.subs[s.roomID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}
