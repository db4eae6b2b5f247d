package pchat

import (
	"net/http"

	"github.com/gobwas/ws"
)

type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HandleSocketWithIdentity upgrades the request and runs the session protocol
// for identity over the resulting connection.
func (room *Room) HandleSocketWithIdentity(identity string, onError ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ValidateIdentity(identity, room.opts.MaxIdentityLength); err != nil {
			onError(w, r, err)
			return
		}
		session, err := room.NewSession(identity)
		if err != nil {
			onError(w, r, err)
			return
		}

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			onError(w, r, err)
			return
		}
		sl := room.Slogger.With("func", "room.HandleSocket", "identity", identity)
		sl.Info("new socket connection")

		ss := NewSocketSession(room.ctx, conn, identity, session, room.opts.PingPeriod, room.Slogger)
		if err := session.OnOpen(room.ctx, ss); err != nil {
			// the response is already hijacked; dropping the connection is the only signal left
			sl.Error("join not recorded, dropping connection", "err", err)
			ss.Start()
			go ss.Close()
			return
		}
		ss.Start()
	}
}

func (room *Room) HandleSocket(resolver IdentityResolver, onError ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := resolver.IdentityFromRequest(r)
		if err != nil {
			onError(w, r, err)
			return
		}
		room.HandleSocketWithIdentity(identity, onError)(w, r)
	}
}
