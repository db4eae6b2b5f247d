package pchat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Publisher receives events in sequence order.
type Publisher interface {
	Publish(ev ChatEvent) error
}

// Sequencer gives every event its place in the log. Append calls are
// serialized: stamp, persist and hand-off happen in one critical section, so
// the publisher sees events in exactly the order they were stored.
type Sequencer struct {
	mu             sync.Mutex
	store          RecordStore
	publisher      Publisher
	last           int64
	lastStamp      time.Time
	persistTimeout time.Duration
	now            func() time.Time

	Slogger *slog.Logger
}

// NewSequencer seeds the counter from the store so a restart continues the log.
func NewSequencer(ctx context.Context, store RecordStore, publisher Publisher, persistTimeout time.Duration, slogger *slog.Logger) (*Sequencer, error) {
	if slogger == nil {
		slogger = slog.Default()
	}
	last, err := store.MaxSequenceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read max sequence id: %w", err)
	}
	slogger.Debug("sequencer seeded", "func", "sequencer.New", "last", last)
	return &Sequencer{
		store:          store,
		publisher:      publisher,
		last:           last,
		persistTimeout: persistTimeout,
		now:            time.Now,
		Slogger:        slogger,
	}, nil
}

func (s *Sequencer) Last() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Append stamps, numbers and persists one event, then hands it to the
// publisher. A failed save returns a *PersistenceError and nothing is published.
func (s *Sequencer) Append(ctx context.Context, kind EventKind, identity, body string) (ChatEvent, error) {
	if identity == "" {
		return ChatEvent{}, ErrEmptyIdentity
	}
	sl := s.Slogger.With("func", "sequencer.Append")

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC()
	if stamp.Before(s.lastStamp) {
		stamp = s.lastStamp
	}
	ev := ChatEvent{
		Identity:   identity,
		Kind:       kind,
		Body:       body,
		Timestamp:  stamp,
		SequenceID: s.last + 1,
	}

	saveCtx := ctx
	if s.persistTimeout > 0 {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(ctx, s.persistTimeout)
		defer cancel()
	}
	id, err := s.store.Save(saveCtx, ev)
	if err == nil && id <= s.last {
		err = fmt.Errorf("store returned sequence id %d, last is %d", id, s.last)
	}
	if err != nil {
		sl.Error("persist failed", "identity", identity, "kind", kind, "err", err)
		s.resync(ctx, stamp, sl)
		return ChatEvent{}, &PersistenceError{Kind: kind, Identity: identity, Err: err}
	}
	ev.SequenceID = id
	s.last = id
	s.lastStamp = stamp
	sl.Debug("persisted", "identity", identity, "kind", kind, "sequenceId", id)

	if s.publisher != nil {
		if err := s.publisher.Publish(ev); err != nil {
			sl.Warn("persisted event not published", "sequenceId", id, "err", err)
		}
	}
	return ev, nil
}

// resync moves the counter past any id a failed save still committed.
// Must be called with s.mu held.
func (s *Sequencer) resync(ctx context.Context, stamp time.Time, sl *slog.Logger) {
	if s.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
		defer cancel()
	}
	maxID, err := s.store.MaxSequenceID(ctx)
	if err != nil {
		sl.Warn("sequence resync failed", "last", s.last, "err", err)
		return
	}
	if maxID > s.last {
		sl.Warn("skipping sequence ids already stored", "last", s.last, "max", maxID)
		s.last = maxID
		s.lastStamp = stamp
	}
}
