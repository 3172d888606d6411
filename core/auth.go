package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultNonceTTL is how long an issued nonce stays valid for signing.
const DefaultNonceTTL = 5 * time.Minute

// Nonce is a single-use challenge issued for a wallet address. At most one
// live nonce exists per address; re-requesting overwrites the previous one.
type Nonce struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Address   string    `gorm:"size:255;uniqueIndex;not null"`
	Value     string    `gorm:"size:128;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`
}

// NewNonce generates a fresh challenge for the address, hex encoded with 256
// bits of entropy.
func NewNonce(address string, ttl time.Duration) (Nonce, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return Nonce{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := time.Now()
	return Nonce{
		ID:        uuid.New().String(),
		Address:   address,
		Value:     hex.EncodeToString(buf),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Live reports whether the nonce is still usable at the given instant.
func (n Nonce) Live(at time.Time) bool {
	return at.Before(n.ExpiresAt)
}

// Session represents an authenticated wallet session carried in an access
// token.
type Session struct {
	ID        string    // Unique session identifier
	UserID    string    // Subject of the token
	WalletID  string    // Wallet the session was opened with
	Address   string    // Wallet address
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the access capability expires
}

// WalletStatus summarizes the wallets currently linked to a user.
type WalletStatus struct {
	Connected bool     `json:"connected"`
	Addresses []string `json:"addresses"`
}
