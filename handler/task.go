package handler

import (
	"context"
	"sync"
	"time"

	"github.com/corretorsys/bankcore/notify"
)

// taskGroup owns the handler's background pollers. Every task carries its
// own cancel func so Close can stop what has not self-terminated yet.
type taskGroup struct {
	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	nextID  int
	wg      sync.WaitGroup
}

func newTaskGroup() *taskGroup {
	return &taskGroup{cancels: make(map[int]context.CancelFunc)}
}

func (g *taskGroup) spawn(run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())

	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.cancels[id] = cancel
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			cancel()
			g.mu.Lock()
			delete(g.cancels, id)
			g.mu.Unlock()
		}()
		run(ctx)
	}()
}

func (g *taskGroup) stopAll() {
	g.mu.Lock()
	for _, cancel := range g.cancels {
		cancel()
	}
	g.mu.Unlock()
	g.wg.Wait()
}

// sleepCtx waits for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func stickyErrorOptions() notify.Options {
	return notify.Options{Variant: notify.VariantError, AutoHide: 0, Sticky: true}
}
