package gamify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "studyquest/adapters/memory"
	"studyquest/analytics"
	"studyquest/core"
	"studyquest/engine"
	"studyquest/realtime"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	_, ch := hub.SubscribeUser("alice", 8)
	engagement := analytics.NewEngagement()
	svc := New(
		WithRealtime(hub),
		WithHooks(engagement),
		WithStorage(mem.New()),
		WithDispatchMode(engine.DispatchSync),
	)
	defer svc.Close()

	out, err := svc.RecordActivity(context.Background(), "alice", core.ActivityEvent{
		Type:      core.ActivityQuest,
		QuestType: core.QuestDaily,
	}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(75), out.ActivityXP)

	ev := <-ch
	assert.Equal(t, core.UserID("alice"), ev.UserID)
	assert.Equal(t, core.EventXPAwarded, ev.Type)
	assert.Equal(t, int64(75), engagement.XPByActivity(core.ActivityQuest))
}

func TestInMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	ctx := context.Background()
	_, err := svc.RecordActivity(ctx, "bob", core.ActivityEvent{Type: core.ActivityTodo}, time.Time{})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalXP)
	assert.Equal(t, 1, stats.StreakDays)
	assert.Equal(t, 23, svc.Catalog().Len())
}
