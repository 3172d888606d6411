package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/require"
)

func TestPublishWalletConnected(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	msgs, err := pubsub.Subscribe(context.Background(), TopicConnected)
	require.NoError(t, err)

	p := NewWatermillPublisher(pubsub)
	require.NoError(t, p.PublishWalletConnected(context.Background(), "0xA1", "user-1", true))

	select {
	case msg := <-msgs:
		var event ConnectedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		require.Equal(t, "0xA1", event.Address)
		require.Equal(t, "user-1", event.UserID)
		require.True(t, event.FirstConnect)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestPublishWalletDisconnected(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	msgs, err := pubsub.Subscribe(context.Background(), TopicDisconnected)
	require.NoError(t, err)

	p := NewWatermillPublisher(pubsub)
	require.NoError(t, p.PublishWalletDisconnected(context.Background(), "user-1", "0xA1"))

	select {
	case msg := <-msgs:
		var event DisconnectedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		require.Equal(t, "user-1", event.UserID)
		require.Equal(t, "0xA1", event.Address)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}
