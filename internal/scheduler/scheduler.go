// Package scheduler re-runs a task on a fixed interval until cancelled.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then once per interval until ctx is done.
// Runs never overlap: a tick that arrives while the task is still running is
// dropped. Task errors are logged and do not stop the loop.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("task", name))

	run := func(n int) {
		start := time.Now()
		if err := task(ctx); err != nil {
			log.Error("run failed", zap.Int("run", n), zap.Error(err))
			return
		}
		log.Info("run finished", zap.Int("run", n), zap.Duration("took", time.Since(start)))
	}

	runs := 1
	run(runs)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
			runs++
			run(runs)
			log.Info("next run scheduled", zap.Time("at", time.Now().Add(interval)))
		}
	}
}
