package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/chirpnet/chirp-auth/core"
)

// GormStore backs the nonce store, identity store and revocation ledger with
// a relational database.
type GormStore struct {
	db         *gorm.DB
	nonceTTL   time.Duration
	bcryptCost int
}

// Option configures a GormStore.
type Option func(*GormStore)

// WithNonceTTL overrides the default nonce lifetime.
func WithNonceTTL(ttl time.Duration) Option {
	return func(s *GormStore) { s.nonceTTL = ttl }
}

// WithBcryptCost overrides the refresh-token hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *GormStore) { s.bcryptCost = cost }
}

// New wraps an existing gorm connection.
func New(db *gorm.DB, opts ...Option) *GormStore {
	s := &GormStore{
		db:         db,
		nonceTTL:   core.DefaultNonceTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a SQLite-backed store with basic tuning and runs migrations.
func Open(path string, logMode bool, opts ...Option) (*GormStore, error) {
	gormLogger := logger.Default
	if !logMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")

	if err := db.AutoMigrate(&core.User{}, &core.Wallet{}, &core.Nonce{}, &core.RevokedToken{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return New(db, opts...), nil
}

// Issue generates a fresh nonce and replaces any existing record for the
// address. Last writer wins; a previously issued nonce becomes unusable.
func (s *GormStore) Issue(ctx context.Context, address string) (string, error) {
	nonce, err := core.NewNonce(address, s.nonceTTL)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "value", "created_at", "expires_at"}),
	}).Create(&nonce).Error
	if err != nil {
		return "", fmt.Errorf("upsert nonce: %w", err)
	}

	return nonce.Value, nil
}

// Live returns the most recently created unexpired nonce for the address.
func (s *GormStore) Live(ctx context.Context, address string) (*core.Nonce, error) {
	var nonce core.Nonce
	err := s.db.WithContext(ctx).
		Where("address = ? AND expires_at > ?", address, time.Now()).
		Order("created_at DESC").
		First(&nonce).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNoValidNonce
	}
	if err != nil {
		return nil, fmt.Errorf("lookup nonce: %w", err)
	}
	return &nonce, nil
}

// Delete removes a consumed nonce.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&core.Nonce{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete nonce: %w", err)
	}
	return nil
}

// Resolve maps an address to its user, creating wallet and user together for
// a first-time address. Both rows are written in one transaction.
func (s *GormStore) Resolve(ctx context.Context, address string) (*core.User, *core.Wallet, core.Resolution, error) {
	user, wallet, err := s.lookup(ctx, address)
	if err == nil {
		return user, wallet, core.IdentityExisting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, 0, fmt.Errorf("lookup wallet: %w", err)
	}

	newUser := core.User{
		ID:       uuid.New().String(),
		Username: address,
	}
	newWallet := core.Wallet{
		ID:      uuid.New().String(),
		Address: address,
		UserID:  newUser.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		return tx.Create(&newWallet).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent connect won the address-uniqueness race; fall back
		// to the existing-wallet path.
		user, wallet, err = s.lookup(ctx, address)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("lookup wallet after conflict: %w", err)
		}
		return user, wallet, core.IdentityExisting, nil
	}
	if err != nil {
		return nil, nil, 0, fmt.Errorf("create identity: %w", err)
	}

	return &newUser, &newWallet, core.IdentityCreated, nil
}

func (s *GormStore) lookup(ctx context.Context, address string) (*core.User, *core.Wallet, error) {
	var wallet core.Wallet
	if err := s.db.WithContext(ctx).Where("address = ?", address).First(&wallet).Error; err != nil {
		return nil, nil, err
	}
	var user core.User
	if err := s.db.WithContext(ctx).Where("id = ?", wallet.UserID).First(&user).Error; err != nil {
		return nil, nil, err
	}
	return &user, &wallet, nil
}

// User fetches a user by id.
func (s *GormStore) User(ctx context.Context, id string) (*core.User, error) {
	var user core.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &user, nil
}

// Wallets lists the user's wallets in insertion order.
func (s *GormStore) Wallets(ctx context.Context, userID string) ([]core.Wallet, error) {
	var wallets []core.Wallet
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// DeleteWallet removes the wallet matching (userID, address). Removing an
// absent wallet is a no-op.
func (s *GormStore) DeleteWallet(ctx context.Context, userID, address string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND address = ?", userID, address).
		Delete(&core.Wallet{}).Error
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}

// DemotePrimary clears the primary flag on all of the user's wallets.
func (s *GormStore) DemotePrimary(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&core.Wallet{}).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Update("is_primary", false).Error
	if err != nil {
		return fmt.Errorf("demote wallets: %w", err)
	}
	return nil
}

// StoreRefreshToken persists a bcrypt hash of the refresh token on the user
// record.
func (s *GormStore) StoreRefreshToken(ctx context.Context, userID, token string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash refresh token: %w", err)
	}
	err = s.db.WithContext(ctx).
		Model(&core.User{}).
		Where("id = ?", userID).
		Update("refresh_token", string(hashed)).Error
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// ClearRefreshToken nulls the user's stored refresh token.
func (s *GormStore) ClearRefreshToken(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&core.User{}).
		Where("id = ?", userID).
		Update("refresh_token", nil).Error
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// Revoke records a token in the revocation ledger. Revoking the same token
// twice is not an error.
func (s *GormStore) Revoke(ctx context.Context, token, userID string) error {
	rec := core.RevokedToken{
		ID:     uuid.New().String(),
		Token:  token,
		UserID: userID,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoNothing: true,
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks the ledger for the raw token string.
func (s *GormStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&core.RevokedToken{}).
		Where("token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return count > 0, nil
}
