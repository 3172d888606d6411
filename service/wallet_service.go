package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chirpnet/chirp-auth/core"
	"github.com/chirpnet/chirp-auth/ports"
)

// DefaultAccessTTL is the default session token lifetime.
const DefaultAccessTTL = 24 * time.Hour

// WalletAuthService orchestrates the wallet challenge/response flow:
// nonce issuance, signature verification, identity resolution, token
// issuance and revocation.
type WalletAuthService struct {
	nonces     ports.NonceStore
	identities ports.IdentityStore
	ledger     ports.RevocationLedger
	tokenizer  ports.Tokenizer
	verifier   ports.Verifier
	events     ports.EventPublisher
	limiter    ports.Limiter
	log        *slog.Logger

	accessTTL time.Duration
}

// Option configures a WalletAuthService.
type Option func(*WalletAuthService)

// WithLimiter bounds repeated nonce/connect attempts per address.
func WithLimiter(l ports.Limiter) Option {
	return func(s *WalletAuthService) { s.limiter = l }
}

// WithEvents sets the lifecycle event publisher.
func WithEvents(p ports.EventPublisher) Option {
	return func(s *WalletAuthService) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *WalletAuthService) { s.log = log }
}

// WithAccessTTL overrides the session token lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *WalletAuthService) { s.accessTTL = ttl }
}

// NewWalletAuthService creates a new wallet authentication service.
func NewWalletAuthService(
	nonces ports.NonceStore,
	identities ports.IdentityStore,
	ledger ports.RevocationLedger,
	tokenizer ports.Tokenizer,
	verifier ports.Verifier,
	opts ...Option,
) *WalletAuthService {
	s := &WalletAuthService{
		nonces:     nonces,
		identities: identities,
		ledger:     ledger,
		tokenizer:  tokenizer,
		verifier:   verifier,
		log:        slog.Default(),
		accessTTL:  DefaultAccessTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestNonce issues a fresh challenge for the address, overwriting any
// prior one.
func (s *WalletAuthService) RequestNonce(ctx context.Context, address string) (string, error) {
	if err := s.allow(ctx, address); err != nil {
		return "", err
	}

	nonce, err := s.nonces.Issue(ctx, address)
	if err != nil {
		return "", fmt.Errorf("issue nonce: %w", err)
	}
	return nonce, nil
}

// ConnectWallet verifies a signed challenge and returns a session token
// bound to the resolved identity. The nonce is consumed only when
// verification succeeds; a failed attempt leaves it usable until expiry.
func (s *WalletAuthService) ConnectWallet(ctx context.Context, address string, sig core.Signature) (string, error) {
	if err := s.allow(ctx, address); err != nil {
		return "", err
	}

	nonce, err := s.nonces.Live(ctx, address)
	if err != nil {
		return "", err
	}

	if err := s.verifier.Verify(nonce.Value, sig, address); err != nil {
		return "", err
	}

	if err := s.nonces.Delete(ctx, nonce.ID); err != nil {
		return "", fmt.Errorf("consume nonce: %w", err)
	}

	user, wallet, resolution, err := s.identities.Resolve(ctx, address)
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}

	now := time.Now()
	session := &core.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		WalletID:  wallet.ID,
		Address:   address,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
	}

	token, err := s.tokenizer.Issue(session)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishWalletConnected(ctx, address, user.ID, resolution == core.IdentityCreated); err != nil {
			// The token is already issued; the event is best effort.
			s.log.Warn("failed to publish connected event", "address", address, "error", err)
		}
	}

	return token, nil
}

// Disconnect removes the wallet matching the address, or demotes all of the
// user's primary wallets when no address is given. Any standing refresh
// token is revoked and cleared either way.
func (s *WalletAuthService) Disconnect(ctx context.Context, userID, address string) error {
	if address != "" {
		if err := s.identities.DeleteWallet(ctx, userID, address); err != nil {
			return fmt.Errorf("delete wallet: %w", err)
		}
	} else {
		if err := s.identities.DemotePrimary(ctx, userID); err != nil {
			return fmt.Errorf("demote wallets: %w", err)
		}
	}

	user, err := s.identities.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.RefreshToken != nil {
		if err := s.ledger.Revoke(ctx, *user.RefreshToken, userID); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if err := s.identities.ClearRefreshToken(ctx, userID); err != nil {
			return fmt.Errorf("clear refresh token: %w", err)
		}
	}

	if s.events != nil {
		if err := s.events.PublishWalletDisconnected(ctx, userID, address); err != nil {
			s.log.Warn("failed to publish disconnected event", "user_id", userID, "error", err)
		}
	}

	return nil
}

// Status reports whether the user has any linked wallets.
func (s *WalletAuthService) Status(ctx context.Context, userID string) (core.WalletStatus, error) {
	wallets, err := s.identities.Wallets(ctx, userID)
	if err != nil {
		return core.WalletStatus{}, fmt.Errorf("list wallets: %w", err)
	}

	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}
	return core.WalletStatus{
		Connected: len(wallets) > 0,
		Addresses: addresses,
	}, nil
}

// Me returns the user record and linked wallets for an authenticated user.
func (s *WalletAuthService) Me(ctx context.Context, userID string) (*core.User, []core.Wallet, error) {
	user, err := s.identities.User(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	wallets, err := s.identities.Wallets(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list wallets: %w", err)
	}
	return user, wallets, nil
}

// Authenticate validates a bearer token. The revocation ledger is consulted
// before the token's own claims; a revoked token is rejected regardless of
// its expiry.
func (s *WalletAuthService) Authenticate(ctx context.Context, rawToken string) (*core.Session, error) {
	revoked, err := s.ledger.IsRevoked(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, core.ErrTokenRevoked
	}

	return s.tokenizer.Parse(rawToken)
}

func (s *WalletAuthService) allow(ctx context.Context, address string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, _, err := s.limiter.Allow(ctx, address, time.Now())
	if err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if !allowed {
		return core.ErrRateLimited
	}
	return nil
}
