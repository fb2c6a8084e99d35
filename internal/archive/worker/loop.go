package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultBackoff = 10 * time.Second

// Loop is one long-lived background pass: its own ticker, a shared
// handle to the use case, and nothing else. Loops never share mutable
// state; they coordinate only through the record store and the shutdown
// signal.
type Loop struct {
	name     string
	interval time.Duration
	backoff  time.Duration
	run      func(ctx context.Context) error
	logger   *zap.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewLoop creates a background loop around run
func NewLoop(name string, interval time.Duration, run func(ctx context.Context) error, logger *zap.Logger) *Loop {
	return &Loop{
		name:     name,
		interval: interval,
		backoff:  defaultBackoff,
		run:      run,
		logger:   logger.With(zap.String("loop", name)),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the loop goroutine. The first pass runs after one
// interval, not immediately, so startup ordering stays predictable.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("loop %s already running", l.name)
	}
	l.running = true

	l.logger.Info("starting background loop", zap.Duration("interval", l.interval))

	l.wg.Add(1)
	go l.loop(ctx)
	return nil
}

// Stop signals the loop and waits for the current pass to finish
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}

	close(l.stopCh)
	l.wg.Wait()
	l.running = false
	l.logger.Info("background loop stopped")
}

func (l *Loop) loop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ctx.Done():
			l.logger.Info("context cancelled, loop stopping")
			return
		case <-ticker.C:
			if err := l.runOnce(ctx); err != nil {
				l.logger.Error("loop pass failed, backing off", zap.Error(err))
				// delay before the next attempt; never crash the loop
				select {
				case <-l.stopCh:
					return
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
			}
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loop pass panicked: %v", r)
		}
	}()
	return l.run(ctx)
}
