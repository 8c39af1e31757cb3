package sync

import (
	"context"
	"errors"
	"log"
	gosync "sync"
	"time"

	"mymeals/internal/notify"
)

// DefaultAutoSyncDelay is the quiet period after the last local change
// before an automatic sync fires.
const DefaultAutoSyncDelay = 2 * time.Second

// AutoSyncer uploads the local data shortly after it changes, with a
// debounce so bursts of edits collapse into one transfer. It is a silent
// push only; it never pulls remote records into local storage. Failures are
// logged and dropped; the next change schedules a fresh attempt.
type AutoSyncer struct {
	engine *Engine
	delay  time.Duration

	mu      gosync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewAutoSyncer(engine *Engine, delay time.Duration) *AutoSyncer {
	if delay <= 0 {
		delay = DefaultAutoSyncDelay
	}
	return &AutoSyncer{engine: engine, delay: delay}
}

// Start subscribes to repository change events. Import events are ignored,
// otherwise a completed sync would immediately schedule another.
func (a *AutoSyncer) Start(events *notify.Broadcaster) {
	events.Subscribe(func(event notify.Event) {
		if event.Kind == notify.EventImported {
			return
		}
		a.Schedule()
	})
}

// Schedule arms the debounce timer, restarting the quiet period when it is
// already armed.
func (a *AutoSyncer) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

// Stop cancels any pending sync. Further Schedule calls are ignored.
func (a *AutoSyncer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *AutoSyncer) fire() {
	err := a.engine.Push(context.Background())
	if err == nil {
		return
	}
	if errors.Is(err, ErrSyncInProgress) {
		// A manual sync is running; try again after another quiet period.
		a.Schedule()
		return
	}
	log.Printf("auto-sync failed: %v", err)
}
