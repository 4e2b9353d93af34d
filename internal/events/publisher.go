// Package events fans domain events out to Redis pub/sub and NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Event types emitted by the services.
const (
	StudentCreated    = "student.created"
	StudentUpdated    = "student.updated"
	StudentDeleted    = "student.deleted"
	CourseCreated     = "course.created"
	CourseUpdated     = "course.updated"
	CourseDeleted     = "course.deleted"
	EnrollmentCreated = "enrollment.created"
	EnrollmentUpdated = "enrollment.updated"
	EnrollmentDeleted = "enrollment.deleted"
)

// Event is the envelope published for every change to an academic record.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	Source     string      `json:"source"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, data interface{}) error
}

// Broker publishes to a Redis channel and a NATS subject derived from the same base name.
// Either transport may be nil.
type Broker struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewBroker builds a broker. channelBase "akademik:events" publishes to the Redis
// channel "akademik:events" and the NATS subject "akademik.events.<type>".
func NewBroker(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *Broker {
	channelBase = strings.TrimSpace(channelBase)
	subject := ""
	if channelBase != "" {
		subject = strings.ReplaceAll(channelBase, ":", ".")
	}

	return &Broker{
		redis:   redisClient,
		channel: channelBase,
		nats:    natsConn,
		subject: subject,
		nodeID:  uuid.NewString(),
		logger:  logger.With().Str("component", "event_broker").Logger(),
		now:     time.Now,
	}
}

// Publish marshals the event once and sends it to every configured transport.
func (b *Broker) Publish(ctx context.Context, eventType, key string, data interface{}) error {
	if b == nil || b.channel == "" {
		return nil
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		Source:     b.nodeID,
		OccurredAt: b.now().UTC(),
		Data:       data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if b.redis != nil {
		if err := b.redis.Publish(ctx, b.channel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if b.nats != nil {
		if err := b.nats.Publish(b.subject+"."+eventType, payload); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	b.logger.Debug().Str("event_type", eventType).Str("key", key).Msg("event published")
	return nil
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, string, interface{}) error { return nil }
