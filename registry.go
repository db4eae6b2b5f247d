//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=mocks/mock_handle.go -package=mocks
package pchat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Handle is the per-connection sink the dispatcher writes wire lines to.
type Handle interface {
	Send(ctx context.Context, message []byte) error
	Close()
}

// Registration identifies one live connection. Two connections under the same
// identity get two registrations.
type Registration struct {
	ID          uuid.UUID
	Identity    string
	ConnectedAt time.Time
}

// Target is one entry of a registry snapshot.
type Target struct {
	Registration
	Handle Handle
}

type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Target
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]Target),
	}
}

func (r *Registry) Register(identity string, handle Handle) Registration {
	reg := Registration{
		ID:          uuid.New(),
		Identity:    identity,
		ConnectedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.entries[reg.ID] = Target{Registration: reg, Handle: handle}
	r.mu.Unlock()
	return reg
}

// Deregister removes reg and reports whether it was still present.
func (r *Registry) Deregister(reg Registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[reg.ID]; !ok {
		return false
	}
	delete(r.entries, reg.ID)
	return true
}

// Snapshot returns a point-in-time copy of every registered target.
func (r *Registry) Snapshot() []Target {
	r.mu.RLock()
	targets := lo.Values(r.entries)
	r.mu.RUnlock()
	return targets
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Presence groups the live registrations by identity, ordered by identity.
func (r *Registry) Presence() []Presence {
	targets := r.Snapshot()
	grouped := lo.GroupBy(targets, func(t Target) string { return t.Identity })
	presences := lo.MapToSlice(grouped, func(identity string, ts []Target) Presence {
		first := lo.MinBy(ts, func(a, b Target) bool { return a.ConnectedAt.Before(b.ConnectedAt) })
		return Presence{
			Identity:    identity,
			Connections: len(ts),
			Since:       first.ConnectedAt,
		}
	})
	sort.Slice(presences, func(i, j int) bool { return presences[i].Identity < presences[j].Identity })
	return presences
}
