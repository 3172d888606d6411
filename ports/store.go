package ports

import (
	"context"

	"github.com/chirpnet/chirp-auth/core"
)

// NonceStore persists one live challenge per wallet address.
type NonceStore interface {
	// Issue generates a fresh nonce for the address and atomically replaces
	// any existing record (last writer wins). Returns the nonce value.
	Issue(ctx context.Context, address string) (string, error)

	// Live returns the most recently created unexpired nonce for the
	// address, or core.ErrNoValidNonce. Lookup does not consume the record.
	Live(ctx context.Context, address string) (*core.Nonce, error)

	// Delete removes a nonce by id. Called only after signature
	// verification succeeds, enforcing single use on the success path.
	Delete(ctx context.Context, id string) error
}

// IdentityStore maps wallet addresses to user identities.
type IdentityStore interface {
	// Resolve returns the user linked to the address, provisioning a new
	// wallet and user together when the address is unseen. The returned
	// Resolution distinguishes the two paths.
	Resolve(ctx context.Context, address string) (*core.User, *core.Wallet, core.Resolution, error)

	// User fetches a user by id.
	User(ctx context.Context, id string) (*core.User, error)

	// Wallets lists the user's wallets in insertion order.
	Wallets(ctx context.Context, userID string) ([]core.Wallet, error)

	// DeleteWallet removes the wallet matching (userID, address).
	// Deleting a wallet that does not exist is not an error.
	DeleteWallet(ctx context.Context, userID, address string) error

	// DemotePrimary clears the primary flag on all of the user's wallets
	// without deleting any of them.
	DemotePrimary(ctx context.Context, userID string) error

	// StoreRefreshToken persists a hash of the refresh token on the user
	// record. Written by the password flow, consumed by wallet disconnect.
	StoreRefreshToken(ctx context.Context, userID, token string) error

	// ClearRefreshToken nulls the user's stored refresh token.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// RevocationLedger records invalidated tokens. Presence of a token makes it
// permanently unusable regardless of its own expiry claim.
type RevocationLedger interface {
	Revoke(ctx context.Context, token, userID string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
