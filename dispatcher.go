package pchat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher fans events out to every registered handle.
//
// Events are queued by Publish and broadcast one at a time by Run, so each
// connection sees them in sequence order. Within one event every handle is
// sent to on its own goroutine and a failing handle never holds up the rest.
type Dispatcher struct {
	registry    *Registry
	queue       chan ChatEvent
	sendTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	Slogger *slog.Logger
}

func NewDispatcher(parentCtx context.Context, registry *Registry, queueSize int, sendTimeout time.Duration, slogger *slog.Logger) *Dispatcher {
	if slogger == nil {
		slogger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &Dispatcher{
		registry:    registry,
		queue:       make(chan ChatEvent, queueSize),
		sendTimeout: sendTimeout,
		ctx:         ctx,
		cancel:      cancel,
		Slogger:     slogger,
	}
}

// Publish queues ev for broadcast. It blocks while the queue is full.
func (d *Dispatcher) Publish(ev ChatEvent) error {
	select {
	case <-d.ctx.Done():
		return ErrRoomStopped
	default:
	}
	select {
	case d.queue <- ev:
		return nil
	case <-d.ctx.Done():
		return ErrRoomStopped
	}
}

// Run broadcasts queued events until Stop is called.
func (d *Dispatcher) Run() {
	sl := d.Slogger.With("func", "dispatcher.Run")
	sl.Debug("starting")
	defer sl.Debug("stopped")
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.queue:
			d.Broadcast(d.ctx, ev)
		}
	}
}

func (d *Dispatcher) Stop() {
	d.cancel()
}

// Broadcast sends ev to every handle in a registry snapshot taken on entry and
// returns once each send has succeeded or failed.
func (d *Dispatcher) Broadcast(ctx context.Context, ev ChatEvent) {
	sl := d.Slogger.With("func", "dispatcher.Broadcast", "sequenceId", ev.SequenceID)
	targets := d.registry.Snapshot()
	if len(targets) == 0 {
		sl.Debug("no targets")
		return
	}
	wire := ev.Wire()

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.deliver(ctx, target, wire); err != nil {
				derr := &DeliveryError{
					Identity:       target.Identity,
					RegistrationID: target.ID,
					SequenceID:     ev.SequenceID,
					Err:            err,
				}
				sl.Warn("delivery failed", "identity", target.Identity, "registration", target.ID, "err", derr)
				if errors.Is(err, ErrHandleClosed) {
					d.registry.Deregister(target.Registration)
				}
			}
		}()
	}
	wg.Wait()
	sl.Debug("broadcast", "targets", len(targets))
}

func (d *Dispatcher) deliver(ctx context.Context, target Target, wire []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrHandleClosed, panicError{r})
		}
	}()
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	// each goroutine gets its own copy of the line
	msg := make([]byte, len(wire))
	copy(msg, wire)
	return target.Handle.Send(ctx, msg)
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return "handle panicked: " + slog.AnyValue(p.value).String()
}
