package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepIncomplete(context.Context) (int64, error) {
	c.calls.Add(1)
	return 3, c.err
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New("every day at noon", &countingSweeper{}, zap.NewNop())
	assert.Error(t, err)

	_, err = New("5 0 * * * *", &countingSweeper{}, zap.NewNop())
	assert.Error(t, err, "seconds field is not accepted")
}

func TestRunOnce(t *testing.T) {
	sw := &countingSweeper{}
	s, err := New("5 0 * * *", sw, zap.NewNop())
	require.NoError(t, err)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.EqualValues(t, 1, sw.calls.Load())
}

func TestScheduledJobSwallowsErrors(t *testing.T) {
	sw := &countingSweeper{err: errors.New("db down")}
	s, err := New("5 0 * * *", sw, zap.NewNop())
	require.NoError(t, err)

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	entries[0].Job.Run()
	assert.EqualValues(t, 1, sw.calls.Load())
}

func TestStartStop(t *testing.T) {
	s, err := New("5 0 * * *", &countingSweeper{}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, s.Next().IsZero())

	s.Start()
	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, time.UTC, next.Location())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 5, next.Minute())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
