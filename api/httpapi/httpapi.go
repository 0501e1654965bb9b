package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	wsadapter "studyquest/adapters/websocket"
	"studyquest/achievements"
	"studyquest/core"
	"studyquest/engine"
	"studyquest/leaderboard"
	"studyquest/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// MetricsHandler, if set, is served at MetricsPath outside the prefix.
	MetricsHandler http.Handler
	// MetricsPath defaults to /metrics.
	MetricsPath string
	// Leaderboard, if set, is served at {prefix}/leaderboard.
	Leaderboard leaderboard.Board
	// Logger receives request failures. Defaults to slog.Default().
	Logger *slog.Logger
}

type api struct {
	svc    *engine.Service
	board  leaderboard.Board
	logger *slog.Logger
}

// NewMux builds an http.Handler exposing the scoring REST API and WebSocket stream.
// Routes:
//   - POST {prefix}/users/{id}/activities
//   - GET  {prefix}/users/{id}/stats
//   - GET  {prefix}/users/{id}/history
//   - GET  {prefix}/users/{id}/achievements
//   - WS   {prefix}/users/{id}/ws
//   - GET  {prefix}/achievements
//   - GET  {prefix}/leaderboard?limit=
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws?user_id=
//   - GET  {metrics path}
func NewMux(svc *engine.Service, hub *realtime.Hub, opts Options) http.Handler {
	a := &api{svc: svc, board: opts.Leaderboard, logger: opts.Logger}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.AllowCORSOrigin != "" {
		r.Use(corsMiddleware(opts.AllowCORSOrigin))
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		r.Use(rateLimitMiddleware(opts.RateLimitRPM, opts.RateLimitBurst))
	}

	if opts.MetricsHandler != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, opts.MetricsHandler)
	}

	routes := func(r chi.Router) {
		// health
		r.Get("/healthz", a.healthCheck)

		r.Group(func(r chi.Router) {
			if len(opts.APIKeys) > 0 {
				r.Use(apiKeyMiddleware(opts.APIKeys))
			}
			r.Get("/achievements", a.listCatalog)
			if a.board != nil {
				r.Get("/leaderboard", a.getLeaderboard)
			}
			r.Route("/users/{id}", func(r chi.Router) {
				r.Post("/activities", a.recordActivity)
				r.Get("/stats", a.getStats)
				r.Get("/history", a.getHistory)
				r.Get("/achievements", a.getAchievements)
				if hub != nil {
					r.Handle("/ws", wsadapter.Handler(hub,
						wsadapter.WithLogger(a.logger),
						wsadapter.WithUserFunc(func(req *http.Request) core.UserID {
							return core.UserID(chi.URLParam(req, "id"))
						})))
				}
			})
			// WebSocket events
			if hub != nil {
				r.Handle("/ws", wsadapter.Handler(hub, wsadapter.WithLogger(a.logger)))
			}
		})
	}
	if p := trimPrefix(opts.PathPrefix); p != "" {
		r.Route(p, routes)
	} else {
		routes(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	return r
}

func trimPrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	if prefix[0] != '/' {
		prefix = "/" + prefix
	}
	return prefix
}

// userParam returns the normalized {id} path parameter or writes a 400.
func userParam(w http.ResponseWriter, r *http.Request) (core.UserID, bool) {
	user, err := core.NormalizeUserID(core.UserID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user", err.Error(), nil)
		return "", false
	}
	return user, true
}

// activityRequest is the body of POST /users/{id}/activities. At defaults
// to the server's current time.
type activityRequest struct {
	core.ActivityEvent
	At *time.Time `json:"at,omitempty"`
}

const maxBodyBytes = 1 << 16

func (a *api) recordActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := userParam(w, r)
	if !ok {
		return
	}
	var req activityRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), nil)
		return
	}
	if req.Type == core.ActivityStreakBonus {
		writeError(w, http.StatusBadRequest, "invalid_activity", "streak bonuses are awarded by the server", nil)
		return
	}
	var at time.Time
	if req.At != nil {
		at = *req.At
	}
	out, err := a.svc.RecordActivity(r.Context(), user, req.ActivityEvent, at)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, out)
}

type statsResponse struct {
	core.GameStats
	LevelProgress float64 `json:"level_progress"`
}

func (a *api) getStats(w http.ResponseWriter, r *http.Request) {
	user, ok := userParam(w, r)
	if !ok {
		return
	}
	st, err := a.svc.Stats(r.Context(), user)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, statsResponse{GameStats: st, LevelProgress: core.LevelProgress(st.TotalXP)})
}

func (a *api) getHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userParam(w, r)
	if !ok {
		return
	}
	history, err := a.svc.History(r.Context(), user)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []core.ActivityRecord{}
	}
	writeJSON(w, history)
}

func (a *api) getAchievements(w http.ResponseWriter, r *http.Request) {
	user, ok := userParam(w, r)
	if !ok {
		return
	}
	list, err := a.svc.Achievements(r.Context(), user)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, list)
}

// catalogEntry is a definition as shown to anonymous clients.
type catalogEntry struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	Description  string                    `json:"description,omitempty"`
	Icon         string                    `json:"icon,omitempty"`
	Category     achievements.Category     `json:"category"`
	Rarity       achievements.Rarity       `json:"rarity"`
	XPReward     int64                     `json:"xp_reward"`
	Hidden       bool                      `json:"hidden,omitempty"`
	EventEndDate *time.Time                `json:"event_end_date,omitempty"`
	Requirement  *achievements.Requirement `json:"requirement,omitempty"`
}

func (a *api) listCatalog(w http.ResponseWriter, r *http.Request) {
	defs := a.svc.Catalog().Definitions()
	out := make([]catalogEntry, 0, len(defs))
	for _, d := range defs {
		e := catalogEntry{
			ID:           d.ID,
			Name:         d.Name,
			Description:  d.Description,
			Icon:         d.Icon,
			Category:     d.Category,
			Rarity:       d.Rarity,
			XPReward:     d.XPReward,
			Hidden:       d.IsHidden,
			EventEndDate: d.EventEndDate,
		}
		if d.IsHidden {
			e.Name, e.Description, e.Icon = "???", "", ""
		} else {
			req := d.Requirement
			e.Requirement = &req
		}
		out = append(out, e)
	}
	writeJSON(w, out)
}

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

func (a *api) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}
	top := a.board.TopN(limit)
	if top == nil {
		top = []leaderboard.Entry{}
	}
	writeJSON(w, top)
}

// healthCheck verifies the service is working properly
func (a *api) healthCheck(w http.ResponseWriter, r *http.Request) {
	// Reading a probe user is a safe, lightweight storage check
	_, err := a.svc.Stats(r.Context(), "healthcheck_probe")

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
	}

	code := http.StatusOK
	if err != nil {
		a.logger.Error("health check failed", "error", err)
		code = http.StatusServiceUnavailable
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	}
	writeJSONStatus(w, code, status)
}

func (a *api) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyUserID):
		writeError(w, http.StatusBadRequest, "invalid_user", err.Error(), nil)
	case errors.Is(err, engine.ErrInvalidActivity):
		writeError(w, http.StatusBadRequest, "invalid_activity", err.Error(), nil)
	case errors.Is(err, engine.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "concurrent update, retry the request", nil)
	default:
		a.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSONStatus(w, status, apiError{Code: code, Message: msg, Details: details})
}
