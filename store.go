//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_record_store.go -package=mocks
package pchat

import "context"

// RecordStore is the durable append-only log of chat events.
//
// Save persists ev under ev.SequenceID and returns the id it was stored with.
// MaxSequenceID returns the highest stored id, or 0 for an empty log.
type RecordStore interface {
	Save(ctx context.Context, ev ChatEvent) (int64, error)
	MaxSequenceID(ctx context.Context) (int64, error)
}

// HistoryStore is implemented by stores that can replay the tail of the log.
type HistoryStore interface {
	RecordStore
	Recent(ctx context.Context, limit int) ([]ChatEvent, error)
}
