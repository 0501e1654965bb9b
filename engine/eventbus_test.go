package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"studyquest/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	unsub := bus.Subscribe(core.EventXPAwarded, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewXPAwarded("u", core.ActivityQuest, 75, 75))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
	unsub()
	bus.Publish(context.Background(), core.NewXPAwarded("u", core.ActivityQuest, 75, 150))
	if count != 1 {
		t.Fatalf("handler ran after unsubscribe: %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewLevelUp("u", 1, 100))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusCloseDrainsQueue(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	var n atomic.Int64
	bus.SubscribeAll(func(ctx context.Context, e core.Event) { n.Add(1) })
	for i := 0; i < 100; i++ {
		bus.Publish(context.Background(), core.NewStreakUpdated("u", i))
	}
	bus.Close()
	bus.Close()
	if got := n.Load() + bus.Dropped(); got != 100 {
		t.Fatalf("delivered+dropped = %d, want 100", got)
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	seen := map[core.EventType]int{}
	unsub := bus.SubscribeAll(func(ctx context.Context, e core.Event) { seen[e.Type]++ })
	ctx := context.Background()
	bus.Publish(ctx, core.NewXPAwarded("u", core.ActivityTodo, 20, 20))
	bus.Publish(ctx, core.NewLevelUp("u", 1, 100))
	bus.Publish(ctx, core.NewStreakUpdated("u", 2))
	bus.Publish(ctx, core.NewAchievementUnlocked("u", core.AchievementUnlock{AchievementID: "streak_3"}))
	if len(seen) != 4 {
		t.Fatalf("seen = %v", seen)
	}
	unsub()
	bus.Publish(ctx, core.NewLevelUp("u", 2, 250))
	if seen[core.EventLevelUp] != 1 {
		t.Fatalf("handler ran after unsubscribe: %v", seen)
	}
}

func TestPublishAfterCloseCountsAsDropped(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	var n atomic.Int64
	bus.SubscribeAll(func(ctx context.Context, e core.Event) { n.Add(1) })
	bus.Close()

	bus.Publish(context.Background(), core.NewLevelUp("u", 1, 100))
	if got := bus.Dropped(); got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}
	if got := n.Load(); got != 0 {
		t.Fatalf("delivered = %d after close", got)
	}
}

func TestSetLoggerWhilePublishing(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	bus.Close()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			bus.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			bus.Publish(context.Background(), core.NewStreakUpdated("u", i))
		}
	}()
	wg.Wait()
	if got := bus.Dropped(); got != 50 {
		t.Fatalf("dropped = %d, want 50", got)
	}
}
