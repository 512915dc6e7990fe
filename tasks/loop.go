package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Wall clock
var SystemClock Clock = systemClock{}

type Loop struct {
	Name     string
	Interval time.Duration
	// if nil, SystemClock
	Clock Clock
	// blocks until the loop may begin; optional
	Ready func(ctx context.Context) error
	Run   func(ctx context.Context) error
	// if nil, slog.Default()
	Logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var ErrAlreadyStarted = errors.New("loop already started")

// Launches the loop goroutine and returns immediately.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return ErrAlreadyStarted
	}
	if l.Run == nil {
		return fmt.Errorf("loop %q has no run function", l.Name)
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		l.loop(ctx)
	}()
	return nil
}

// Cancels the loop and waits for the goroutine to exit. Safe to call on a loop which was never started.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Loop) logger() *slog.Logger {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("loop", l.Name)
}

func (l *Loop) clock() Clock {
	if l.Clock == nil {
		return SystemClock
	}
	return l.Clock
}

func (l *Loop) loop(ctx context.Context) {
	logger := l.logger()
	clock := l.clock()

	if l.Ready != nil {
		if err := l.Ready(ctx); err != nil {
			if ctx.Err() == nil {
				logger.Error("loop readiness check failed, not starting", "err", err)
			}
			return
		}
	}
	logger.Info("starting loop", "interval", l.Interval)

	for {
		start := clock.Now()
		if err := l.iterate(ctx); err != nil && ctx.Err() == nil {
			loopErrorCount.WithLabelValues(l.Name).Inc()
			logger.Error("loop iteration failed", "err", err)
		}
		loopIterationDuration.WithLabelValues(l.Name).Observe(clock.Now().Sub(start).Seconds())

		select {
		case <-ctx.Done():
			logger.Info("stopping loop")
			return
		case <-clock.After(l.Interval):
		}
	}
}

func (l *Loop) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in loop %s: %v\n%s", l.Name, r, debug.Stack())
		}
	}()
	return l.Run(ctx)
}
