package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chirpnet/chirp-auth/core"
)

// MemoryStore is an in-memory implementation of the nonce store, identity
// store and revocation ledger. Used in tests and single-process dev setups.
type MemoryStore struct {
	mu       sync.RWMutex
	nonceTTL time.Duration

	nonces  map[string]core.Nonce // keyed by address
	users   map[string]*core.User // keyed by user id
	wallets []core.Wallet         // insertion order matters for Wallets()
	revoked map[string]core.RevokedToken
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(nonceTTL time.Duration) *MemoryStore {
	if nonceTTL == 0 {
		nonceTTL = core.DefaultNonceTTL
	}
	return &MemoryStore{
		nonceTTL: nonceTTL,
		nonces:   make(map[string]core.Nonce),
		users:    make(map[string]*core.User),
		revoked:  make(map[string]core.RevokedToken),
	}
}

func (s *MemoryStore) Issue(_ context.Context, address string) (string, error) {
	nonce, err := core.NewNonce(address, s.nonceTTL)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[address] = nonce
	return nonce.Value, nil
}

func (s *MemoryStore) Live(_ context.Context, address string) (*core.Nonce, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nonce, ok := s.nonces[address]
	if !ok || !nonce.Live(time.Now()) {
		return nil, core.ErrNoValidNonce
	}
	return &nonce, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for address, nonce := range s.nonces {
		if nonce.ID == id {
			delete(s.nonces, address)
		}
	}
	return nil
}

func (s *MemoryStore) Resolve(_ context.Context, address string) (*core.User, *core.Wallet, core.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.wallets {
		if s.wallets[i].Address == address {
			wallet := s.wallets[i]
			user := *s.users[wallet.UserID]
			return &user, &wallet, core.IdentityExisting, nil
		}
	}

	now := time.Now()
	user := &core.User{
		ID:        uuid.New().String(),
		Username:  address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	wallet := core.Wallet{
		ID:        uuid.New().String(),
		Address:   address,
		UserID:    user.ID,
		CreatedAt: now,
	}
	s.users[user.ID] = user
	s.wallets = append(s.wallets, wallet)

	userCopy := *user
	return &userCopy, &wallet, core.IdentityCreated, nil
}

func (s *MemoryStore) User(_ context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, core.ErrInvalidToken
	}
	userCopy := *user
	return &userCopy, nil
}

func (s *MemoryStore) Wallets(_ context.Context, userID string) ([]core.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Wallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteWallet(_ context.Context, userID, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.wallets[:0]
	for _, w := range s.wallets {
		if w.UserID == userID && w.Address == address {
			continue
		}
		kept = append(kept, w)
	}
	s.wallets = kept
	return nil
}

func (s *MemoryStore) DemotePrimary(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.wallets {
		if s.wallets[i].UserID == userID {
			s.wallets[i].IsPrimary = false
		}
	}
	return nil
}

func (s *MemoryStore) StoreRefreshToken(_ context.Context, userID, token string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return core.ErrInvalidToken
	}
	h := string(hashed)
	user.RefreshToken = &h
	return nil
}

func (s *MemoryStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[userID]; ok {
		user.RefreshToken = nil
	}
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.revoked[token]; exists {
		return nil
	}
	s.revoked[token] = core.RevokedToken{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.revoked[token]
	return exists, nil
}
