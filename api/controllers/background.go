package controllers

import (
	"context"
	"github.com/alex-pricope/family-portal/logging"
	"sync"
	"time"
)

// BestEffort runs non-critical side effects (audit rows, analytics) off the
// request path. Failures are logged and never reach the caller. With Inline set
// the task runs before the response is written, which Lambda needs because the
// execution environment is frozen once the handler returns.
type BestEffort struct {
	Inline  bool
	Timeout time.Duration
	wg      sync.WaitGroup
}

func (b *BestEffort) Go(name string, task func(ctx context.Context) error) {
	run := func() {
		timeout := b.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := task(ctx); err != nil {
			logging.Log.Warnf("BACKGROUND: %s failed: %v", name, err)
		}
	}

	if b.Inline {
		run()
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		run()
	}()
}

// Wait blocks until every started task has finished.
func (b *BestEffort) Wait() {
	b.wg.Wait()
}
