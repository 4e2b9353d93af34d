package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/akademik-api/internal/events"
)

func TestBrokerPublishesToRedisChannel(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "akademik:events")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	broker := events.NewBroker(client, nil, "akademik:events", zerolog.Nop())
	require.NoError(t, broker.Publish(ctx, events.StudentCreated, "2024-10-0001", map[string]string{"name": "Siti"}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event events.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, events.StudentCreated, event.Type)
	require.Equal(t, "2024-10-0001", event.Key)
	require.NotEmpty(t, event.ID)
	require.NotEmpty(t, event.Source)
}

func TestBrokerWithoutTransportsIsNoop(t *testing.T) {
	broker := events.NewBroker(nil, nil, "akademik:events", zerolog.Nop())
	require.NoError(t, broker.Publish(context.Background(), events.CourseDeleted, "1", nil))

	unconfigured := events.NewBroker(nil, nil, "", zerolog.Nop())
	require.NoError(t, unconfigured.Publish(context.Background(), events.CourseDeleted, "1", nil))

	var nop events.Nop
	require.NoError(t, nop.Publish(context.Background(), events.CourseDeleted, "1", nil))
}
