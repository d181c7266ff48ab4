package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "secret")
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Classroom API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "@every 1m", cfg.AutoCloseSchedule)
	require.Equal(t, 50*time.Second, cfg.AutoCloseLockTTL)
	require.Equal(t, 20, cfg.SubmissionRateLimitMax)
	require.Equal(t, time.Minute, cfg.SubmissionRateLimitWindow)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "secret")
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidLockTTL(t *testing.T) {
	t.Setenv("CLASSROOM_JWT_SECRET", "secret")
	t.Setenv("CLASSROOM_DATABASE_DRIVER", "postgres")
	t.Setenv("CLASSROOM_AUTOCLOSE_LOCK_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}
