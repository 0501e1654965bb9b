package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"studyquest/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

// EventTypes lists every event type the engine publishes.
var EventTypes = []core.EventType{
	core.EventXPAwarded,
	core.EventLevelUp,
	core.EventAchievementUnlocked,
	core.EventStreakUpdated,
}

type subscription struct {
	id int64
	fn func(context.Context, core.Event)
}

// EventBus provides thread-safe pub/sub with sync and async dispatch.
type EventBus struct {
	mode       DispatchMode
	mu         sync.RWMutex
	subs       map[core.EventType]map[int64]subscription
	nextID     int64
	asyncQueue chan core.Event
	workers    int
	wg         sync.WaitGroup
	closeOnce  sync.Once
	closed     bool // guarded by mu
	done       chan struct{}
	dropped    atomic.Int64
	logger     atomic.Pointer[slog.Logger]
}

func NewEventBus(mode DispatchMode) *EventBus {
	eb := &EventBus{
		mode:       mode,
		subs:       make(map[core.EventType]map[int64]subscription),
		asyncQueue: make(chan core.Event, 2048),
		workers:    4,
		done:       make(chan struct{}),
	}
	eb.logger.Store(slog.Default())
	if mode == DispatchAsync {
		eb.startWorkers()
	}
	return eb
}

// SetLogger replaces the logger used to report dropped events.
func (e *EventBus) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger.Store(l)
	}
}

func (e *EventBus) startWorkers() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case ev := <-e.asyncQueue:
					e.dispatchSync(context.Background(), ev)
				case <-e.done:
					// drain what is already queued
					for {
						select {
						case ev := <-e.asyncQueue:
							e.dispatchSync(context.Background(), ev)
						default:
							return
						}
					}
				}
			}
		}()
	}
}

// Close stops async workers after the queued events are delivered.
func (e *EventBus) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		close(e.done)
		e.wg.Wait()
	})
}

// Dropped returns how many async events were discarded because the queue
// was full or the bus was closed.
func (e *EventBus) Dropped() int64 { return e.dropped.Load() }

// Subscribe registers a handler for an event type. Returns unsubscribe func.
func (e *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]subscription)
	}
	e.subs[typ][id] = subscription{id: id, fn: handler}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[typ]; m != nil {
			delete(m, id)
		}
	}
}

// SubscribeAll registers handler for every type in EventTypes.
func (e *EventBus) SubscribeAll(handler func(context.Context, core.Event)) func() {
	unsubs := make([]func(), 0, len(EventTypes))
	for _, typ := range EventTypes {
		unsubs = append(unsubs, e.Subscribe(typ, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Publish sends an event to subscribers.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode == DispatchAsync {
		e.mu.RLock()
		closed := e.closed
		queued := false
		if !closed {
			select {
			case e.asyncQueue <- ev:
				queued = true
			default:
				// drop rather than block the scoring path
			}
		}
		e.mu.RUnlock()
		if !queued {
			e.dropped.Add(1)
			reason := "queue full"
			if closed {
				reason = "bus closed"
			}
			e.logger.Load().Warn("event bus dropping event", "reason", reason, "type", ev.Type, "user", ev.UserID)
		}
		return
	}
	e.dispatchSync(ctx, ev)
}

func (e *EventBus) dispatchSync(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	subs := e.subs[ev.Type]
	// copy to avoid holding lock during callbacks
	handlers := make([]func(context.Context, core.Event), 0, len(subs))
	for _, s := range subs {
		handlers = append(handlers, s.fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
