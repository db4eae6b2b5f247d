package pchat_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/chilledoj/pchat"
	"github.com/chilledoj/pchat/store/memstore"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// fakeHandle collects the lines delivered to one connection.
type fakeHandle struct {
	mu      sync.Mutex
	lines   []string
	sendErr error
	closed  bool
}

func (f *fakeHandle) Send(_ context.Context, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.lines = append(f.lines, string(message))
	return nil
}

func (f *fakeHandle) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeHandle) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

// Events parses every delivered line.
func (f *fakeHandle) Events(t *testing.T) []pchat.ChatEvent {
	var events []pchat.ChatEvent
	for _, line := range f.Lines() {
		_, ev, err := pchat.ParseWire(line)
		require.NoError(t, err, line)
		events = append(events, ev)
	}
	return events
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []pchat.ChatEvent
}

func (p *recordingPublisher) Publish(ev pchat.ChatEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Events() []pchat.ChatEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pchat.ChatEvent(nil), p.events...)
}

// failingStore wraps a memstore and rejects saves while down is set.
type failingStore struct {
	*memstore.Store
	mu   sync.Mutex
	down bool
}

func (f *failingStore) SetDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *failingStore) Save(ctx context.Context, ev pchat.ChatEvent) (int64, error) {
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()
	if down {
		return 0, errStoreDown
	}
	return f.Store.Save(ctx, ev)
}

var errStoreDown = errors.New("store unavailable")

// lossyAckStore commits a save and then reports it as failed, once per
// DropNextAck.
type lossyAckStore struct {
	*memstore.Store
	mu   sync.Mutex
	drop bool
}

func (l *lossyAckStore) DropNextAck() {
	l.mu.Lock()
	l.drop = true
	l.mu.Unlock()
}

func (l *lossyAckStore) Save(ctx context.Context, ev pchat.ChatEvent) (int64, error) {
	id, err := l.Store.Save(ctx, ev)
	if err != nil {
		return id, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.drop {
		l.drop = false
		return 0, context.DeadlineExceeded
	}
	return id, nil
}

// setupTestRoom starts a room over store and stops it when the test ends.
func setupTestRoom(t *testing.T, store pchat.RecordStore) *pchat.Room {
	room, err := pchat.NewRoom(context.Background(), t.Name(), store, pchat.Options{
		SendTimeout:    time.Second,
		PersistTimeout: time.Second,
		Slogger:        logs.GetLoggerFromLevel(slog.LevelDebug),
	})
	require.NoError(t, err)
	go room.Start()
	t.Cleanup(room.Stop)
	return room
}

func waitForLines(t *testing.T, h *fakeHandle, n int) []string {
	require.Eventually(t, func() bool { return len(h.Lines()) >= n }, time.Second, 5*time.Millisecond,
		"expected %d lines", n)
	return h.Lines()
}
