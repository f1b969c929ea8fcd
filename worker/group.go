package worker

import (
	"context"
	"sync"

	"github.com/hkanojia/sheetsink/utils"
)

// Group tracks fire-and-forget background tasks so shutdown can wait for
// in-flight work. There is no admission cap: every accepted task gets
// its own goroutine. Once Drain has begun, new tasks are refused and
// stay queued in the ledger for the next process's recovery pass.
type Group struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewGroup() *Group {
	return &Group{}
}

// Go runs fn on its own goroutine, reporting false if the group is
// already draining. Panics are contained to the task.
func (g *Group) Go(name string, fn func()) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		utils.Sugar.Warnf("task %s refused: group is draining", name)
		return false
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.Sugar.Errorf("task %s panicked: %v", name, r)
			}
		}()
		fn()
	}()
	return true
}

// Drain stops admission and waits for in-flight tasks to finish, or for
// ctx to expire.
func (g *Group) Drain(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
