package events

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublisherWritesToRedisChannel(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	publisher := NewBrokerPublisher(client, nil, "classroom", zerolog.Nop())
	require.Equal(t, "classroom:events", publisher.RedisChannel())
	require.Equal(t, "classroom.events", publisher.NATSSubject())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, publisher.RedisChannel())
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(ctx, AssignmentPublished, map[string]interface{}{"assignment_id": "a-1"}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	event, err := Decode([]byte(msg.Payload))
	require.NoError(t, err)
	require.Equal(t, AssignmentPublished, event.Type)
	require.Equal(t, "a-1", event.Payload["assignment_id"])
	require.NotEmpty(t, event.ID)
}

func TestBrokerPublisherReportsRedisFailure(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	publisher := NewBrokerPublisher(client, nil, "classroom", zerolog.Nop())
	err = publisher.Publish(context.Background(), SubmissionCreated, nil)
	require.Error(t, err)
}

func TestBrokerPublisherWithoutBrokersIsNoop(t *testing.T) {
	publisher := NewBrokerPublisher(nil, nil, "", zerolog.Nop())
	require.NoError(t, publisher.Publish(context.Background(), SubmissionReviewed, map[string]interface{}{"x": 1}))
	require.NoError(t, NopPublisher{}.Publish(context.Background(), SubmissionReviewed, nil))
}
