package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/chirpnet/chirp-auth/ports"
)

const (
	TopicConnected    = "wallet.connected"
	TopicDisconnected = "wallet.disconnected"
)

// ConnectedEvent is emitted after a successful connect-wallet flow.
type ConnectedEvent struct {
	Address      string    `json:"address"`
	UserID       string    `json:"user_id"`
	FirstConnect bool      `json:"first_connect"`
	At           time.Time `json:"at"`
}

// DisconnectedEvent is emitted after a wallet disconnect.
type DisconnectedEvent struct {
	UserID  string    `json:"user_id"`
	Address string    `json:"address,omitempty"`
	At      time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishWalletConnected(_ context.Context, address, userID string, firstConnect bool) error {
	return p.publish(TopicConnected, ConnectedEvent{
		Address:      address,
		UserID:       userID,
		FirstConnect: firstConnect,
		At:           time.Now().UTC(),
	})
}

func (p *WatermillPublisher) PublishWalletDisconnected(_ context.Context, userID, address string) error {
	return p.publish(TopicDisconnected, DisconnectedEvent{
		UserID:  userID,
		Address: address,
		At:      time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NoopPublisher discards all events. Used in tests and when no broker is
// configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishWalletConnected(context.Context, string, string, bool) error {
	return nil
}

func (NoopPublisher) PublishWalletDisconnected(context.Context, string, string) error {
	return nil
}
