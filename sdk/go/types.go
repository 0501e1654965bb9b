package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"studyquest/achievements"
	"studyquest/core"
)

// Stats mirrors GET /users/{id}/stats.
type Stats struct {
	core.GameStats
	LevelProgress float64 `json:"level_progress"`
}

// CatalogEntry mirrors one element of GET /achievements. Hidden entries
// carry no requirement and a masked name.
type CatalogEntry struct {
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

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed: status %d", e.Status)
	}
	return fmt.Sprintf("request failed: status %d: %s: %s", e.Status, e.Code, e.Message)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
