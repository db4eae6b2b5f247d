package pchat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chilledoj/pchat"
	"github.com/chilledoj/pchat/mocks"
	"github.com/chilledoj/pchat/store/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func openSession(t *testing.T, room *pchat.Room, identity string, h pchat.Handle) *pchat.Session {
	session, err := room.NewSession(identity)
	require.NoError(t, err)
	require.NoError(t, session.OnOpen(t.Context(), h))
	return session
}

func TestSession_Scenario(t *testing.T) {
	t.Run("alice and bob join and chat", func(t *testing.T) {
		req := require.New(t)
		store := memstore.New()
		room := setupTestRoom(t, store)

		alice := &fakeHandle{}
		openSession(t, room, "alice", alice)

		// alice is registered before her join is broadcast, so she sees it herself
		lines := waitForLines(t, alice, 1)
		req.True(strings.HasPrefix(lines[0], "SYSTEM: {identity='alice', body='Connected', "), lines[0])
		req.Len(store.Events(), 1)
		joined := store.Events()[0]
		req.Equal(pchat.Joined, joined.Kind)
		req.Equal("alice", joined.Identity)
		req.Equal(pchat.ConnectedBody, joined.Body)
		req.Equal(int64(1), joined.SequenceID)

		bob := &fakeHandle{}
		openSession(t, room, "bob", bob)
		lines = waitForLines(t, alice, 2)
		req.True(strings.HasPrefix(lines[1], "SYSTEM: {identity='bob', body='Connected', "), lines[1])
		req.True(strings.HasSuffix(lines[1], ", sequenceId=2}"), lines[1])
	})
	t.Run("a message reaches everyone", func(t *testing.T) {
		req := require.New(t)
		room := setupTestRoom(t, memstore.New())
		alice, bob := &fakeHandle{}, &fakeHandle{}
		aliceSession := openSession(t, room, "alice", alice)
		waitForLines(t, alice, 1)
		openSession(t, room, "bob", bob)
		waitForLines(t, alice, 2)

		req.NoError(aliceSession.OnTextMessage(t.Context(), "hi"))

		aliceLines := waitForLines(t, alice, 3)
		bobLines := waitForLines(t, bob, 2)
		for _, last := range []string{aliceLines[2], bobLines[1]} {
			req.True(strings.HasPrefix(last, "alice: {identity='alice', body='hi', "), last)
			req.True(strings.HasSuffix(last, ", sequenceId=3}"), last)
		}
	})
	t.Run("a failing handle does not stop the others", func(t *testing.T) {
		req := require.New(t)
		room := setupTestRoom(t, memstore.New())
		alice, bob := &fakeHandle{}, &fakeHandle{sendErr: errors.New("half closed")}
		aliceSession := openSession(t, room, "alice", alice)
		openSession(t, room, "bob", bob)

		req.NoError(aliceSession.OnTextMessage(t.Context(), "anyone there?"))

		lines := waitForLines(t, alice, 3)
		req.Contains(lines[2], "body='anyone there?'")
		req.Empty(bob.Lines())
	})
	t.Run("nothing is broadcast while the store is down", func(t *testing.T) {
		req := require.New(t)
		store := &failingStore{Store: memstore.New()}
		room := setupTestRoom(t, store)
		alice, bob := &fakeHandle{}, &fakeHandle{}
		aliceSession := openSession(t, room, "alice", alice)
		waitForLines(t, alice, 1)
		openSession(t, room, "bob", bob)
		waitForLines(t, bob, 1)

		store.SetDown(true)
		err := aliceSession.OnTextMessage(t.Context(), "lost")
		req.ErrorIs(err, pchat.ErrPersistence)

		// give the dispatcher a chance to (wrongly) deliver
		time.Sleep(50 * time.Millisecond)
		for _, line := range bob.Lines() {
			req.NotContains(line, "lost")
		}
		req.Len(store.Events(), 2)

		store.SetDown(false)
		req.NoError(aliceSession.OnTextMessage(t.Context(), "back"))
		lines := waitForLines(t, bob, 2)
		req.Contains(lines[len(lines)-1], "sequenceId=3}")
	})
	t.Run("messages keep flowing after a save that lost its ack", func(t *testing.T) {
		req := require.New(t)
		store := &lossyAckStore{Store: memstore.New()}
		room := setupTestRoom(t, store)
		alice := &fakeHandle{}
		aliceSession := openSession(t, room, "alice", alice)
		waitForLines(t, alice, 1)

		store.DropNextAck()
		req.ErrorIs(aliceSession.OnTextMessage(t.Context(), "maybe"), pchat.ErrPersistence)

		for range 5 {
			req.NoError(aliceSession.OnTextMessage(t.Context(), "again"))
		}
		lines := waitForLines(t, alice, 6)
		req.Contains(lines[1], "sequenceId=3}")
		req.Contains(lines[5], "sequenceId=7}")
	})
}

func TestSession_OnOpen(t *testing.T) {
	t.Run("should keep the registration when the join is not persisted", func(t *testing.T) {
		req := require.New(t)
		store := &failingStore{Store: memstore.New()}
		room := setupTestRoom(t, store)
		store.SetDown(true)

		session, err := room.NewSession("alice")
		req.NoError(err)
		err = session.OnOpen(t.Context(), &fakeHandle{})

		req.ErrorIs(err, pchat.ErrPersistence)
		req.Equal(pchat.Open, session.State())
		req.Equal(1, room.Connections())
		req.Empty(store.Events())

		store.SetDown(false)
		req.NoError(session.OnTextMessage(t.Context(), "still here"))
	})
	t.Run("should not open twice", func(t *testing.T) {
		req := require.New(t)
		room := setupTestRoom(t, memstore.New())
		session := openSession(t, room, "alice", &fakeHandle{})

		err := session.OnOpen(t.Context(), &fakeHandle{})

		req.ErrorIs(err, pchat.ErrInvalidState)
		req.Equal(1, room.Connections())
	})
	t.Run("should refuse an empty identity", func(t *testing.T) {
		room := setupTestRoom(t, memstore.New())
		_, err := room.NewSession("")
		require.ErrorIs(t, err, pchat.ErrEmptyIdentity)
	})
}

func TestSession_InvalidState(t *testing.T) {
	t.Run("should reject messages and close before open", func(t *testing.T) {
		req := require.New(t)
		store := memstore.New()
		room := setupTestRoom(t, store)
		session, err := room.NewSession("alice")
		req.NoError(err)

		err = session.OnTextMessage(t.Context(), "too early")
		var serr *pchat.InvalidStateError
		req.True(errors.As(err, &serr))
		req.Equal(pchat.Unopened, serr.State)
		req.ErrorIs(session.OnClose(t.Context()), pchat.ErrInvalidState)

		req.Empty(store.Events())
		req.Zero(room.Connections())
	})
	t.Run("should reject messages and close after close", func(t *testing.T) {
		req := require.New(t)
		store := memstore.New()
		room := setupTestRoom(t, store)
		session := openSession(t, room, "alice", &fakeHandle{})
		req.NoError(session.OnClose(t.Context()))
		req.Equal(pchat.Closed, session.State())

		req.ErrorIs(session.OnTextMessage(t.Context(), "too late"), pchat.ErrInvalidState)
		req.ErrorIs(session.OnClose(t.Context()), pchat.ErrInvalidState)
		req.ErrorIs(session.OnOpen(t.Context(), &fakeHandle{}), pchat.ErrInvalidState)

		req.Len(store.Events(), 2)
		req.Zero(room.Connections())
	})
}

func TestSession_OnClose(t *testing.T) {
	t.Run("should not send the leave to the closing connection", func(t *testing.T) {
		req := require.New(t)
		store := memstore.New()
		room := setupTestRoom(t, store)
		alice, bob := &fakeHandle{}, &fakeHandle{}
		openSession(t, room, "alice", alice)
		waitForLines(t, alice, 1)
		bobSession := openSession(t, room, "bob", bob)
		waitForLines(t, bob, 1)

		req.NoError(bobSession.OnClose(t.Context()))

		lines := waitForLines(t, alice, 3)
		req.True(strings.HasPrefix(lines[2], "SYSTEM: {identity='bob', body='Disconnected', "), lines[2])
		time.Sleep(20 * time.Millisecond)
		req.Len(bob.Lines(), 1)
		req.Equal(1, room.Connections())
		req.Equal(pchat.Left, store.Events()[2].Kind)
	})
	t.Run("should deregister before persisting the leave", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		store := mocks.NewMockRecordStore(ctrl)
		room := setupTestRoomWithMock(t, store)

		gomock.InOrder(
			store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(int64(1), nil),
			store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, ev pchat.ChatEvent) (int64, error) {
					req.Equal(pchat.Left, ev.Kind)
					req.Zero(room.Connections())
					return ev.SequenceID, nil
				}),
		)
		delivered := make(chan struct{}, 1)
		h := mocks.NewMockHandle(ctrl)
		h.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, []byte) error {
				delivered <- struct{}{}
				return nil
			}).Times(1)

		session := openSession(t, room, "alice", h)
		select {
		case <-delivered:
		case <-time.After(time.Second):
			req.FailNow("join was not delivered")
		}
		req.NoError(session.OnClose(t.Context()))
	})
}

func setupTestRoomWithMock(t *testing.T, store *mocks.MockRecordStore) *pchat.Room {
	store.EXPECT().MaxSequenceID(gomock.Any()).Return(int64(0), nil)
	return setupTestRoom(t, store)
}

func TestSession_Concurrency(t *testing.T) {
	t.Run("should keep a total order under concurrent sessions", func(t *testing.T) {
		req := require.New(t)
		store := memstore.New()
		room := setupTestRoom(t, store)
		observer := &fakeHandle{}
		openSession(t, room, "observer", observer)

		const users, messages = 8, 20
		var wg sync.WaitGroup
		for u := range users {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h := &fakeHandle{}
				session, err := room.NewSession(fmt.Sprintf("user-%d", u))
				if err != nil {
					t.Error(err)
					return
				}
				if err := session.OnOpen(t.Context(), h); err != nil {
					t.Error(err)
					return
				}
				// a burst on one session, sent concurrently
				var burst sync.WaitGroup
				for m := range messages {
					burst.Add(1)
					go func() {
						defer burst.Done()
						if err := session.OnTextMessage(t.Context(), fmt.Sprintf("m%d", m)); err != nil {
							t.Error(err)
						}
					}()
				}
				burst.Wait()
				if err := session.OnClose(t.Context()); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()

		total := 1 + users*(messages+2)
		req.Len(store.Events(), total)
		waitForLines(t, observer, total)

		events := observer.Events(t)
		for i, ev := range events {
			req.Equal(int64(i+1), ev.SequenceID)
		}
		req.Equal(store.Events(), events)
		req.Equal(1, room.Connections())
	})
}
