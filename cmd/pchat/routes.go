package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chilledoj/pchat"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func newRouter(room *pchat.Room, history pchat.HistoryStore, historyLimit int, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/history", historyHandler(history, historyLimit, log))
		r.Get("/presence", presenceHandler(room))
	})
	r.Get("/pchat/{username}", room.HandleSocket(pchat.IdentityFromPath("username"), socketErrorHandler(log)))

	return r
}

func socketErrorHandler(log *slog.Logger) pchat.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case errors.Is(err, pchat.ErrEmptyIdentity), errors.Is(err, pchat.ErrInvalidIdentity):
			log.Debug("identity rejected", "err", err, "requestId", middleware.GetReqID(r.Context()))
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, pchat.ErrRoomStopped):
			http.Error(w, "room closed", http.StatusServiceUnavailable)
		default:
			log.Error("socket upgrade failed", "err", err, "requestId", middleware.GetReqID(r.Context()))
			http.Error(w, "error", http.StatusInternalServerError)
		}
	}
}

func historyHandler(history pchat.HistoryStore, maxLimit int, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := maxLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxLimit)
		}
		events, err := history.Recent(r.Context(), limit)
		if err != nil {
			log.Error("history read failed", "err", err)
			http.Error(w, "error", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []pchat.ChatEvent{}
		}
		writeJSON(w, events)
	}
}

func presenceHandler(room *pchat.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, room.Presence())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
