// Package memstore keeps the event log in memory. Nothing survives a restart.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/chilledoj/pchat"
	"github.com/samber/lo"
)

type Store struct {
	mu     sync.RWMutex
	events []pchat.ChatEvent
}

func New() *Store {
	return &Store{}
}

func (s *Store) Save(ctx context.Context, ev pchat.ChatEvent) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.events); n > 0 && s.events[n-1].SequenceID >= ev.SequenceID {
		return 0, fmt.Errorf("sequence id %d already stored", ev.SequenceID)
	}
	s.events = append(s.events, ev)
	return ev.SequenceID, nil
}

func (s *Store) MaxSequenceID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) == 0 {
		return 0, nil
	}
	return s.events[len(s.events)-1].SequenceID, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]pchat.ChatEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	return append([]pchat.ChatEvent(nil), lo.Subset(s.events, -limit, uint(limit))...), nil
}

// Events returns a copy of the whole log.
func (s *Store) Events() []pchat.ChatEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pchat.ChatEvent, len(s.events))
	copy(out, s.events)
	return out
}
