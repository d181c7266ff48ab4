// Package events publishes classroom lifecycle events to downstream consumers
// over Redis pub/sub and NATS.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/observability"
)

// Event types emitted by the services.
const (
	AssignmentPublished  = "assignment.published"
	AssignmentClosed     = "assignment.closed"
	AssignmentAutoClosed = "assignment.auto_closed"
	SubmissionCreated    = "submission.created"
	SubmissionReviewed   = "submission.reviewed"
)

// Event is the envelope written to every broker.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Source     string                 `json:"source"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// Publisher hands lifecycle events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// BrokerPublisher fans events out to Redis and NATS. Either connection may be nil.
type BrokerPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewBrokerPublisher derives the Redis channel and NATS subject from channelBase.
func NewBrokerPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *BrokerPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &BrokerPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		now:          time.Now,
	}
}

// RedisChannel returns the pub/sub channel events are written to.
func (p *BrokerPublisher) RedisChannel() string {
	return p.redisChannel
}

// NATSSubject returns the subject events are written to.
func (p *BrokerPublisher) NATSSubject() string {
	return p.natsSubject
}

// Publish writes the event to every configured broker. The first broker error is returned
// after all brokers have been tried.
func (p *BrokerPublisher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) error {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     p.nodeID,
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var firstErr error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, body).Err(); err != nil {
			observability.EventPublishFailures().WithLabelValues("redis").Inc()
			p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event to redis")
			firstErr = err
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, body); err != nil {
			observability.EventPublishFailures().WithLabelValues("nats").Inc()
			p.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event to nats")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr == nil {
		observability.EventsPublished().WithLabelValues(eventType).Inc()
	}

	return firstErr
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, map[string]interface{}) error {
	return nil
}

// Decode parses a broker message into an Event.
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
