// Package live streams match events to WebSocket clients.
package live

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/store"
)

// Subscriber delivers JSON-encoded events for one match.
type Subscriber interface {
	Subscribe(matchID string) chan []byte
	Unsubscribe(matchID string, ch chan []byte)
}

// Matches looks up a match so unknown ids are refused before the upgrade.
type Matches interface {
	Get(ctx context.Context, id string) (dodgeball.MatchSession, error)
}

type Handler struct {
	subs    Subscriber
	matches Matches
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, subs Subscriber, matches Matches) *Handler {
	return &Handler{subs: subs, matches: matches, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/matches/{id}", h.stream)
	return r
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.matches.Get(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ch := h.subs.Subscribe(id)
	defer h.subs.Unsubscribe(id, ch)

	// The stream is one-way; CloseRead handles pings and the close frame.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("websocket stream ended", "match", id, "error", ctx.Err())
			return
		case data := <-ch:
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.Debug("websocket write failed", "match", id, "error", err)
				return
			}
		}
	}
}
