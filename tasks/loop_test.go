package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clock whose After channels fire immediately, so loops spin as fast as the test lets them
type fastClock struct{}

func (fastClock) Now() time.Time { return time.Unix(0, 0) }
func (fastClock) After(d time.Duration) <-chan time.Time {
	c := make(chan time.Time, 1)
	c <- time.Unix(0, 0)
	return c
}

func TestLoopWaitsForReady(t *testing.T) {
	assert := assert.New(t)

	ready := make(chan struct{})
	var runs atomic.Int64
	l := &Loop{
		Name:     "ready",
		Interval: time.Hour,
		Clock:    fastClock{},
		Ready: func(ctx context.Context) error {
			select {
			case <-ready:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(int64(0), runs.Load())

	close(ready)
	assert.Eventually(func() bool { return runs.Load() > 0 }, time.Second, time.Millisecond)
}

func TestLoopSurvivesPanicsAndErrors(t *testing.T) {
	assert := assert.New(t)

	var runs atomic.Int64
	l := &Loop{
		Name:     "faulty",
		Interval: time.Millisecond,
		Clock:    fastClock{},
		Run: func(ctx context.Context) error {
			n := runs.Add(1)
			switch n % 3 {
			case 0:
				panic("boom")
			case 1:
				return errors.New("oops")
			}
			return nil
		},
	}
	require.NoError(t, l.Start(context.Background()))
	assert.Eventually(func() bool { return runs.Load() >= 6 }, time.Second, time.Millisecond)
	l.Stop()
}

func TestLoopStopsOnCancel(t *testing.T) {
	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		Name:     "cancel",
		Interval: time.Hour,
		Run:      func(ctx context.Context) error { return nil },
	}
	require.NoError(t, l.Start(ctx))
	assert.ErrorIs(l.Start(ctx), ErrAlreadyStarted)

	cancel()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after cancel")
	}
	// stopping an exited loop is a no-op
	l.Stop()
}

func TestLoopStopNeverStarted(t *testing.T) {
	l := &Loop{Name: "idle"}
	l.Stop()
	assert.Error(t, l.Start(context.Background()))
}
