package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshAll(ctx context.Context) error {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("refresh started without a deadline")
	}
	return r.err
}

func TestScheduler_FirstRunWaitsOneInterval(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := &countingRefresher{}
	s := New(r, 300*time.Millisecond, time.Second)
	require.NoError(t, s.Start())

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, r.calls.Load(), "no refresh before the first interval elapses")

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestScheduler_KeepsPollingAfterFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := &countingRefresher{err: errors.New("upstream down")}
	s := New(r, 50*time.Millisecond, time.Second)
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()

	stopped := r.calls.Load()
	time.Sleep(150 * time.Millisecond)
	assert.LessOrEqual(t, r.calls.Load(), stopped+1)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := New(&countingRefresher{}, 0, 0)
	assert.Equal(t, 15*time.Minute, s.interval)
	assert.Equal(t, 30*time.Second, s.timeout)
	s.Stop()
}
