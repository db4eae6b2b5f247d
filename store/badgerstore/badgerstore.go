// Package badgerstore persists the event log in BadgerDB.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/chilledoj/pchat"
	"github.com/dgraph-io/badger/v4"
)

const prefix = "event:"

type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens (or creates) a Badger database at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return New(db, log), nil
}

func New(db *badger.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// eventKey is "event:{sequence_padded}". The 19-digit padding keeps the
// lexicographical key order equal to sequence order.
func eventKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%019d", prefix, id))
}

type record struct {
	Identity   string `json:"identity"`
	Kind       int8   `json:"kind"`
	Body       string `json:"body"`
	At         int64  `json:"at"`
	SequenceID int64  `json:"sequenceId"`
}

// Save writes ev under its sequence id. An id that is already stored is rejected.
func (s *Store) Save(ctx context.Context, ev pchat.ChatEvent) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if ev.SequenceID <= 0 {
		return 0, fmt.Errorf("sequence id must be positive, got %d", ev.SequenceID)
	}
	value, err := json.Marshal(fromEvent(ev))
	if err != nil {
		return 0, err
	}
	key := eventKey(ev.SequenceID)
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("sequence id %d already stored", ev.SequenceID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		// badger transactions take no context; give up before writing if
		// the caller already has
		if err := ctx.Err(); err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if err != nil {
		return 0, err
	}
	return ev.SequenceID, nil
}

func (s *Store) MaxSequenceID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var maxID int64
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		it.Seek(append([]byte(prefix), []byte("9999999999999999999")...))
		if !it.ValidForPrefix([]byte(prefix)) {
			return nil
		}
		id, err := strconv.ParseInt(string(it.Item().Key()[len(prefix):]), 10, 64)
		maxID = id
		return err
	})
	return maxID, err
}

// Recent returns the newest limit events in ascending sequence order.
func (s *Store) Recent(ctx context.Context, limit int) ([]pchat.ChatEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var events []pchat.ChatEvent
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(append(p, []byte("9999999999999999999")...)); it.ValidForPrefix(p); it.Next() {
			if limit > 0 && len(events) == limit {
				s.log.Debug(fmt.Sprintf("Maximum of %d events reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var r record
				if err := json.Unmarshal(value, &r); err != nil {
					return err
				}
				events = append(events, r.toEvent())
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}

func fromEvent(ev pchat.ChatEvent) record {
	return record{
		Identity:   ev.Identity,
		Kind:       int8(ev.Kind),
		Body:       ev.Body,
		At:         ev.Timestamp.UnixNano(),
		SequenceID: ev.SequenceID,
	}
}

func (r record) toEvent() pchat.ChatEvent {
	return pchat.ChatEvent{
		Identity:   r.Identity,
		Kind:       pchat.EventKind(r.Kind),
		Body:       r.Body,
		Timestamp:  time.Unix(0, r.At).UTC(),
		SequenceID: r.SequenceID,
	}
}
