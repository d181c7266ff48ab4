// Package scheduler runs the periodic assignment expiry sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// LockKey is the Redis key replicas contend for before sweeping.
const LockKey = "classroom:locks:assignments:auto-close"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Sweeper closes every published assignment whose deadline has passed.
type Sweeper interface {
	AutoCloseExpired(ctx context.Context) (int64, error)
}

// AutoCloser runs the sweep under an optional Redis lock.
type AutoCloser struct {
	sweeper Sweeper
	redis   *redis.Client
	lockTTL time.Duration
	logger  zerolog.Logger
}

// NewAutoCloser builds the job. A nil redis client runs the sweep unlocked.
func NewAutoCloser(sweeper Sweeper, redisClient *redis.Client, lockTTL time.Duration, logger zerolog.Logger) *AutoCloser {
	if lockTTL <= 0 {
		lockTTL = 50 * time.Second
	}

	return &AutoCloser{
		sweeper: sweeper,
		redis:   redisClient,
		lockTTL: lockTTL,
		logger:  logger.With().Str("component", "auto_close_job").Logger(),
	}
}

// RunOnce performs a single sweep. acquired is false when another replica holds the lock.
func (a *AutoCloser) RunOnce(ctx context.Context) (acquired bool, closed int64, err error) {
	if a.redis == nil {
		closed, err = a.sweeper.AutoCloseExpired(ctx)
		return true, closed, err
	}

	token := uuid.NewString()
	acquired, err = a.redis.SetNX(ctx, LockKey, token, a.lockTTL).Result()
	if err != nil {
		return false, 0, fmt.Errorf("acquire auto-close lock: %w", err)
	}
	if !acquired {
		a.logger.Debug().Msg("auto-close lock held elsewhere, skipping")
		return false, 0, nil
	}

	defer func() {
		if releaseErr := releaseScript.Run(context.WithoutCancel(ctx), a.redis, []string{LockKey}, token).Err(); releaseErr != nil && !errors.Is(releaseErr, redis.Nil) {
			a.logger.Warn().Err(releaseErr).Msg("failed to release auto-close lock")
		}
	}()

	closed, err = a.sweeper.AutoCloseExpired(ctx)
	return true, closed, err
}

// Start schedules the job on a new cron runner and starts it.
func Start(schedule string, job *AutoCloser, timeout time.Duration) (*cron.Cron, error) {
	if timeout <= 0 {
		timeout = job.lockTTL
	}

	runner := cron.New()
	_, err := runner.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		started := time.Now()
		acquired, closed, err := job.RunOnce(ctx)
		switch {
		case err != nil:
			job.logger.Error().Err(err).Msg("auto-close sweep failed")
		case acquired:
			job.logger.Info().Int64("closed", closed).Dur("elapsed", time.Since(started)).Msg("auto-close sweep finished")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid auto-close schedule %q: %w", schedule, err)
	}

	runner.Start()
	return runner, nil
}
