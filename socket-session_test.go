package pchat_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/chilledoj/pchat"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []string
	closes   int
	closed   chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{closed: make(chan struct{})}
}

func (h *recordingHandler) OnTextMessage(_ context.Context, text string) error {
	h.mu.Lock()
	h.messages = append(h.messages, text)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) OnClose(_ context.Context) error {
	h.mu.Lock()
	h.closes++
	if h.closes == 1 {
		close(h.closed)
	}
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

func (h *recordingHandler) Closes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

func setupSocketSession(t *testing.T) (*pchat.SocketSession, net.Conn, *recordingHandler) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	handler := newRecordingHandler()
	session := pchat.NewSocketSession(context.Background(), serverConn, "alice", handler, time.Hour, nil)
	session.Start()
	t.Cleanup(func() {
		session.Close()
		_ = clientConn.Close()
	})
	return session, clientConn, handler
}

func TestSocketSession_ReadLoop(t *testing.T) {
	t.Run("should hand text and binary frames to the handler in order", func(t *testing.T) {
		req := require.New(t)
		_, client, handler := setupSocketSession(t)

		req.NoError(wsutil.WriteClientText(client, []byte("hello")))
		req.NoError(wsutil.WriteClientBinary(client, []byte("world")))

		req.Eventually(func() bool {
			return len(handler.Messages()) == 2
		}, time.Second, 5*time.Millisecond)
		req.Equal([]string{"hello", "world"}, handler.Messages())
	})

	t.Run("should run the close protocol once when the client goes away", func(t *testing.T) {
		req := require.New(t)
		session, client, handler := setupSocketSession(t)

		req.NoError(client.Close())

		select {
		case <-handler.closed:
		case <-time.After(time.Second):
			t.Fatal("OnClose was not called")
		}
		session.Close()
		req.Equal(1, handler.Closes())
		req.ErrorIs(session.Send(context.Background(), []byte("late")), pchat.ErrHandleClosed)
	})
}

func TestSocketSession_Send(t *testing.T) {
	t.Run("should write queued lines as text frames", func(t *testing.T) {
		req := require.New(t)
		session, client, _ := setupSocketSession(t)

		req.NoError(session.Send(context.Background(), []byte("SYSTEM: first")))
		req.NoError(session.Send(context.Background(), []byte("SYSTEM: second")))

		for _, want := range []string{"SYSTEM: first", "SYSTEM: second"} {
			msg, op, err := wsutil.ReadServerData(client)
			req.NoError(err)
			req.Equal(ws.OpText, op)
			req.Equal(want, string(msg))
		}
	})
}

func TestSocketSession_Close(t *testing.T) {
	t.Run("should run the close protocol when closed from the server side", func(t *testing.T) {
		req := require.New(t)
		session, _, handler := setupSocketSession(t)

		session.Close()

		req.Equal(1, handler.Closes())
		req.ErrorIs(session.Send(context.Background(), []byte("late")), pchat.ErrHandleClosed)
		session.Close()
		req.Equal(1, handler.Closes())
	})
}
