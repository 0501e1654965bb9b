package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyquest/adapters/jsonfile"
	mem "studyquest/adapters/memory"
	"studyquest/config"
	"studyquest/core"
	"studyquest/realtime"
)

func TestSetupStorage(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()

	store, cleanup, err := setupStorage(ctx, cfg)
	require.NoError(t, err)
	cleanup()
	assert.IsType(t, &mem.Store{}, store)

	cfg.Storage.Adapter = "file"
	cfg.Storage.File.Path = filepath.Join(t.TempDir(), "state.json")
	store, cleanup, err = setupStorage(ctx, cfg)
	require.NoError(t, err)
	cleanup()
	assert.IsType(t, &jsonfile.Store{}, store)

	cfg.Storage.Adapter = "sql"
	cfg.Storage.SQL.DSN = filepath.Join(t.TempDir(), "state.db")
	store, cleanup, err = setupStorage(ctx, cfg)
	require.NoError(t, err)
	defer cleanup()
	_, err = store.GetStats(ctx, "alice")
	require.NoError(t, err)

	cfg.Storage.Adapter = "tape"
	_, _, err = setupStorage(ctx, cfg)
	assert.ErrorContains(t, err, "unknown storage adapter")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "INFO", parseLogLevel("verbose").String())
}

func TestProvideHooks(t *testing.T) {
	cfg := config.DefaultConfig()
	logger := setupLogging(cfg)
	board := provideLeaderboard()
	assert.Len(t, provideHooks(cfg, nil, board, logger), 1)

	cfg.Metrics.Enabled = true
	cfg.Webhooks.Endpoints = []string{"http://127.0.0.1:1/hook"}
	hooks := provideHooks(cfg, provideMetrics(cfg), board, logger)
	assert.Len(t, hooks, 3)
}

func TestMetricsOnAPIAddress(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Scoring.Dispatch = "sync"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = cfg.Server.Address
	cfg.Metrics.CollectSystem = false

	logger := setupLogging(cfg)
	metrics := provideMetrics(cfg)
	require.NotNil(t, metrics)
	assert.Nil(t, metrics.Server)

	loc, err := provideLocation(cfg)
	require.NoError(t, err)
	hub := realtime.NewHub()
	board := provideLeaderboard()
	svc, closeSvc := provideService(cfg, logger, hub, mem.New(), provideCatalog(cfg, logger), loc, provideHooks(cfg, metrics, board, logger))
	defer closeSvc()

	_, err = svc.RecordActivity(ctx, "alice", core.ActivityEvent{Type: core.ActivityQuest, QuestType: core.QuestDaily}, time.Time{})
	require.NoError(t, err)

	handler := provideHandler(svc, hub, board, cfg, logger, metrics)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `studyquest_xp_awarded_total{activity="quest"} 75`), rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"alice"`)
}
