package pchat

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// SessionHandler receives the inbound side of one connection.
type SessionHandler interface {
	OnTextMessage(ctx context.Context, text string) error
	OnClose(ctx context.Context) error
}

// SocketSession is the websocket Handle: a read loop feeding the session
// handler one frame at a time and a write loop draining the outbound buffer.
type SocketSession struct {
	// The key bit - the web-socket connection
	conn net.Conn
	// The reference bit
	identity string

	// The message bit
	send    chan []byte
	handler SessionHandler

	pingPeriod time.Duration

	// The concurrency bit
	parent    context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once

	Slogger *slog.Logger
}

// NewSocketSession wraps conn. Handler callbacks run with parentCtx, which
// outlives the connection so the close protocol can still persist.
func NewSocketSession(parentCtx context.Context, conn net.Conn, identity string, handler SessionHandler, pingPeriod time.Duration, slogger *slog.Logger) *SocketSession {
	ctx, cancel := context.WithCancel(context.Background())
	if slogger == nil {
		slogger = slog.Default()
	}
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}
	return &SocketSession{
		conn:       conn,
		identity:   identity,
		send:       make(chan []byte, 255),
		handler:    handler,
		pingPeriod: pingPeriod,
		parent:     parentCtx,
		ctx:        ctx,
		cancel:     cancel,
		Slogger:    slogger.With("identity", identity),
	}
}

// Start launches the read and write loops.
func (s *SocketSession) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			s.ReadLoop()
		}()
		go func() {
			defer s.wg.Done()
			s.WriteLoop()
		}()
	})
}

func (s *SocketSession) Identity() string {
	return s.identity
}

// Close tears the connection down and waits for both loops to exit. The read
// loop runs the handler's close protocol on its way out.
func (s *SocketSession) Close() {
	s.cancel()
	s.conn.Close()
	s.wg.Wait()
}

// Send queues message for the write loop.
func (s *SocketSession) Send(ctx context.Context, message []byte) error {
	if s.ctx.Err() != nil {
		return ErrHandleClosed
	}
	select {
	case s.send <- message:
		return nil
	case <-s.ctx.Done():
		return ErrHandleClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SocketSession) ReadLoop() {
	sl := s.Slogger.With("func", "socket.ReadLoop")
	sl.Debug("starting")
	defer func() {
		s.conn.Close()
		s.cancel()
		if err := s.handler.OnClose(s.parent); err != nil {
			sl.Error("close protocol failed", "err", err)
		}
		sl.Debug("ReadLoop exited")
	}()
	for {
		msg, op, err := wsutil.ReadClientData(s.conn)
		if err != nil {
			var er wsutil.ClosedError
			if errors.As(err, &er) {
				sl.Debug("ReadLoop closing", "reason", er.Reason)
			} else if s.ctx.Err() == nil {
				sl.Error("ReadLoop error", "err", err)
			}
			return
		}
		if op != ws.OpText && op != ws.OpBinary {
			continue
		}
		sl.Debug("ReadLoop message", "bytes", len(msg))
		if err := s.handler.OnTextMessage(s.parent, string(msg)); err != nil {
			sl.Error("message not relayed", "err", err)
		}
	}
}

func (s *SocketSession) WriteLoop() {
	sl := s.Slogger.With("func", "socket.WriteLoop")
	sl.Debug("starting")
	ticker := time.NewTicker(s.pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		s.cancel()
		sl.Debug("WriteLoop exited")
	}()
	for {
		select {
		case msg := <-s.send:
			if err := wsutil.WriteServerText(s.conn, msg); err != nil {
				sl.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			sl.Log(context.Background(), slog.Level(-8), "ping")
			if err := wsutil.WriteServerMessage(s.conn, ws.OpPing, []byte("ping")); err != nil {
				sl.Debug("ping failed", "err", err)
				return
			}
		case <-s.ctx.Done():
			// EXIT AND CLOSE SOCKET SENT FROM ABOVE
			return
		}
	}
}
