package ports

import "context"

// EventPublisher publishes wallet lifecycle events to notify other services
type EventPublisher interface {
	PublishWalletConnected(ctx context.Context, address, userID string, firstConnect bool) error
	PublishWalletDisconnected(ctx context.Context, userID, address string) error
}
