package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"studyquest/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)

	ev := core.NewXPAwarded("bob", core.ActivityQuest, 75, 75)
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.UserID != "bob" || received.Type != core.EventXPAwarded {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if h.Len() != 0 {
		t.Fatalf("expected no subscribers, got %d", h.Len())
	}
}

func TestHubFiltersByUser(t *testing.T) {
	h := NewHub()
	_, alice := h.SubscribeUser("alice", 4)
	_, all := h.Subscribe(4)

	ctx := context.Background()
	h.Broadcast(ctx, core.NewLevelUp("bob", 2, 250))
	h.Broadcast(ctx, core.NewStreakUpdated("alice", 3))

	if got := <-alice; got.UserID != "alice" || got.StreakDays != 3 {
		t.Fatalf("unexpected event for alice: %+v", got)
	}
	select {
	case ev := <-alice:
		t.Fatalf("alice received another user's event: %+v", ev)
	default:
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events on the firehose, got %d", len(all))
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	h.Subscribe(1)
	ctx := context.Background()
	h.Broadcast(ctx, core.NewLevelUp("u", 1, 100))
	h.Broadcast(ctx, core.NewLevelUp("u", 2, 250))
	if h.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", h.Dropped())
	}
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewAchievementUnlocked("alice", core.AchievementUnlock{AchievementID: "streak_7", XPAwarded: 100})
	b := MarshalJSON(ev)
	var out core.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Achievement != "streak_7" || out.Delta != 100 {
		t.Fatalf("unexpected event: %+v", out)
	}
}
