package websocket

import (
	"log/slog"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"studyquest/core"
	"studyquest/realtime"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Option configures the handler.
type Option func(*handler)

// WithUserFunc selects whose events a connection receives. An empty user
// streams every user's events. Defaults to the "user_id" query parameter.
func WithUserFunc(fn func(*http.Request) core.UserID) Option {
	return func(h *handler) {
		if fn != nil {
			h.userOf = fn
		}
	}
}

// WithBuffer sets the per-connection event buffer.
func WithBuffer(n int) Option {
	return func(h *handler) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the logger for upgrade failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *handler) {
		if l != nil {
			h.logger = l
		}
	}
}

type handler struct {
	hub      *realtime.Hub
	upgrader gorillaws.Upgrader
	userOf   func(*http.Request) core.UserID
	buffer   int
	logger   *slog.Logger
}

// Handler returns an http.Handler that upgrades to WebSocket and streams events from the hub.
func Handler(hub *realtime.Hub, opts ...Option) http.Handler {
	h := &handler{
		hub:      hub,
		upgrader: gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		userOf:   func(r *http.Request) core.UserID { return core.UserID(r.URL.Query().Get("user_id")) },
		buffer:   256,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := h.userOf(r)
	if user != "" {
		norm, err := core.NormalizeUserID(user)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		user = norm
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	id, ch := h.hub.SubscribeUser(user, h.buffer)
	defer h.hub.Unsubscribe(id)

	// the read loop handles pongs and notices the client going away
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(gorillaws.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
