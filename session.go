package pchat

import (
	"context"
	"sync"
)

// Session drives one connection through Unopened -> Open -> Closed.
//
// Messages on one session may arrive concurrently; they share a read lock.
// Open and Close take the write lock, so Close waits for in-flight messages and
// no message can be appended after the Left event.
type Session struct {
	identity  string
	registry  *Registry
	sequencer *Sequencer

	mu    sync.RWMutex
	state SessionState
	reg   Registration
}

func newSession(identity string, registry *Registry, sequencer *Sequencer) *Session {
	return &Session{
		identity:  identity,
		registry:  registry,
		sequencer: sequencer,
		state:     Unopened,
	}
}

func (s *Session) Identity() string { return s.identity }

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Registration() Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

// OnOpen registers handle and records the join. If the join cannot be
// persisted the session stays open and registered; the error is returned so
// the transport can decide to drop the connection.
func (s *Session) OnOpen(ctx context.Context, handle Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unopened {
		return &InvalidStateError{Op: "open", State: s.state}
	}
	s.reg = s.registry.Register(s.identity, handle)
	s.state = Open
	_, err := s.sequencer.Append(ctx, Joined, s.identity, ConnectedBody)
	return err
}

func (s *Session) OnTextMessage(ctx context.Context, text string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Open {
		return &InvalidStateError{Op: "message", State: s.state}
	}
	_, err := s.sequencer.Append(ctx, Message, s.identity, text)
	return err
}

// OnClose deregisters before recording the leave, so the closing handle is
// never a target of its own Left event.
func (s *Session) OnClose(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Open {
		return &InvalidStateError{Op: "close", State: s.state}
	}
	s.registry.Deregister(s.reg)
	s.state = Closed
	_, err := s.sequencer.Append(ctx, Left, s.identity, DisconnectedBody)
	return err
}
