package pchat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrPersistence   = errors.New("event not persisted")
	ErrInvalidState  = errors.New("invalid session state")
	ErrHandleClosed  = errors.New("handle closed")
	ErrRoomStopped   = errors.New("room stopped")
	ErrEmptyIdentity = errors.New("identity is empty")

	ErrInvalidIdentity = errors.New("invalid identity")
)

// PersistenceError reports an event the store did not accept. The event was
// never offered to the dispatcher.
type PersistenceError struct {
	Kind     EventKind
	Identity string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s event for %q: %v", e.Kind, e.Identity, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// InvalidStateError reports a lifecycle call made out of order.
type InvalidStateError struct {
	Op    string
	State SessionState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: session is %s", e.Op, e.State)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// DeliveryError is a failed send to one handle. It never leaves the dispatcher.
type DeliveryError struct {
	Identity       string
	RegistrationID uuid.UUID
	SequenceID     int64
	Err            error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver event %d to %q (%s): %v", e.SequenceID, e.Identity, e.RegistrationID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
