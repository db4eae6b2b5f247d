package pchat

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Room is one chat relay: a registry of live connections, the sequencer that
// orders and persists their events, and the dispatcher that fans them out.
type Room struct {
	ID   string
	opts Options

	registry   *Registry
	sequencer  *Sequencer
	dispatcher *Dispatcher

	// Concurrency
	ctx    context.Context
	cancel context.CancelFunc

	// Logging
	Slogger *slog.Logger
}

type Options struct {
	// QueueSize bounds the events persisted but not yet broadcast.
	QueueSize int
	// SendTimeout bounds one delivery to one handle.
	SendTimeout time.Duration
	// PersistTimeout bounds one save to the record store.
	PersistTimeout time.Duration
	// PingPeriod is how often socket sessions ping their client.
	PingPeriod time.Duration
	// MaxIdentityLength caps identities accepted by HandleSocket.
	MaxIdentityLength int

	Slogger *slog.Logger
}

const (
	defaultQueueSize      = 255
	defaultSendTimeout    = time.Second * 2
	defaultPersistTimeout = time.Second * 5
	defaultPingPeriod     = time.Second * 10
)

func NewRoom(parentCtx context.Context, id string, store RecordStore, options Options) (*Room, error) {
	if options.QueueSize <= 0 {
		options.QueueSize = defaultQueueSize
	}
	if options.SendTimeout == 0 {
		options.SendTimeout = defaultSendTimeout
	}
	if options.PersistTimeout == 0 {
		options.PersistTimeout = defaultPersistTimeout
	}
	if options.PingPeriod == 0 {
		options.PingPeriod = defaultPingPeriod
	}
	if options.MaxIdentityLength <= 0 {
		options.MaxIdentityLength = defaultMaxIdentityLength
	}

	ctx, cancel := context.WithCancel(parentCtx)
	room := &Room{
		ID:       id,
		opts:     options,
		registry: NewRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}
	if options.Slogger != nil {
		room.Slogger = options.Slogger.With("room", room.ID)
	} else {
		room.Slogger = slog.Default().With("room", room.ID)
	}

	room.dispatcher = NewDispatcher(ctx, room.registry, options.QueueSize, options.SendTimeout, room.Slogger)
	sequencer, err := NewSequencer(ctx, store, room.dispatcher, options.PersistTimeout, room.Slogger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("room %s: %w", id, err)
	}
	room.sequencer = sequencer

	return room, nil
}

// Start runs the dispatch loop and blocks until Stop.
func (room *Room) Start() {
	sl := room.Slogger.With("func", "room.Start")
	sl.Debug("starting")
	defer sl.Info("stopped")
	room.dispatcher.Run()
}

// Stop closes every live connection, letting each run its own close protocol,
// then stops the dispatch loop.
func (room *Room) Stop() {
	sl := room.Slogger.With("func", "room.Stop")
	sl.Debug("closing", "status", "started")
	for _, target := range room.registry.Snapshot() {
		sl.Debug("closing connection", "identity", target.Identity, "registration", target.ID)
		target.Handle.Close() // should be blocking
	}
	room.dispatcher.Stop()
	room.cancel()
	sl.Debug("room closed", "status", "completed")
}

// NewSession returns an unopened session for identity.
func (room *Room) NewSession(identity string) (*Session, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	if room.ctx.Err() != nil {
		return nil, ErrRoomStopped
	}
	return newSession(identity, room.registry, room.sequencer), nil
}

func (room *Room) Presence() []Presence {
	return room.registry.Presence()
}

// Connections is the number of live registrations.
func (room *Room) Connections() int {
	return room.registry.Len()
}

// LastSequenceID is the id of the newest persisted event.
func (room *Room) LastSequenceID() int64 {
	return room.sequencer.Last()
}
