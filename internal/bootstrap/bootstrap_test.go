package bootstrap

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/config"
	"github.com/noah-isme/gema-classroom-api/internal/events"
)

func TestOpenWithoutBrokersUsesNopPublisher(t *testing.T) {
	infra, err := Open(config.Config{DatabaseDriver: "sqlite", DatabaseURL: "file:bootstrap_nop?mode=memory&cache=shared"}, zerolog.Nop())
	require.NoError(t, err)
	defer infra.Close()

	require.IsType(t, events.NopPublisher{}, infra.Events)
	require.Nil(t, infra.Redis)
}

func TestOpenWiresRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	infra, err := Open(config.Config{
		DatabaseDriver: "sqlite",
		DatabaseURL:    "file:bootstrap_redis?mode=memory&cache=shared",
		RedisURL:       "redis://" + mr.Addr(),
		EventsChannel:  "classroom",
	}, zerolog.Nop())
	require.NoError(t, err)
	defer infra.Close()

	publisher, ok := infra.Events.(*events.BrokerPublisher)
	require.True(t, ok)
	require.Equal(t, "classroom:events", publisher.RedisChannel())
}

func TestOpenSkipsUnreachableRedis(t *testing.T) {
	infra, err := Open(config.Config{
		DatabaseDriver: "sqlite",
		DatabaseURL:    "file:bootstrap_down?mode=memory&cache=shared",
		RedisURL:       "redis://127.0.0.1:1",
	}, zerolog.Nop())
	require.NoError(t, err)
	defer infra.Close()

	require.Nil(t, infra.Redis)
}
