package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls  int
	closed int64
	err    error
	during func()
}

func (f *fakeSweeper) AutoCloseExpired(context.Context) (int64, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	return f.closed, f.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRunOnceHoldsLockWhileSweeping(t *testing.T) {
	mr, client := newRedis(t)
	sweeper := &fakeSweeper{closed: 3}
	sweeper.during = func() {
		require.True(t, mr.Exists(LockKey))
		require.Equal(t, 30*time.Second, mr.TTL(LockKey))
	}

	job := NewAutoCloser(sweeper, client, 30*time.Second, zerolog.Nop())
	acquired, closed, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, acquired)
	require.Equal(t, int64(3), closed)
	require.Equal(t, 1, sweeper.calls)
	require.False(t, mr.Exists(LockKey))
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	mr, client := newRedis(t)
	require.NoError(t, mr.Set(LockKey, "other-replica"))

	sweeper := &fakeSweeper{}
	job := NewAutoCloser(sweeper, client, time.Minute, zerolog.Nop())
	acquired, _, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.False(t, acquired)
	require.Zero(t, sweeper.calls)

	value, err := mr.Get(LockKey)
	require.NoError(t, err)
	require.Equal(t, "other-replica", value)
}

func TestRunOnceReleasesLockOnFailure(t *testing.T) {
	mr, client := newRedis(t)
	sweeper := &fakeSweeper{err: errors.New("database unavailable")}

	job := NewAutoCloser(sweeper, client, time.Minute, zerolog.Nop())
	acquired, _, err := job.RunOnce(context.Background())
	require.Error(t, err)
	require.True(t, acquired)
	require.False(t, mr.Exists(LockKey))
}

func TestRunOnceWithoutRedisRunsUnlocked(t *testing.T) {
	sweeper := &fakeSweeper{closed: 1}
	job := NewAutoCloser(sweeper, nil, 0, zerolog.Nop())

	acquired, closed, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, acquired)
	require.Equal(t, int64(1), closed)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	job := NewAutoCloser(&fakeSweeper{}, nil, time.Second, zerolog.Nop())
	_, err := Start("every now and then", job, 0)
	require.Error(t, err)

	runner, err := Start("@every 1h", job, 0)
	require.NoError(t, err)
	<-runner.Stop().Done()
}
