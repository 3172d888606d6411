package core

import "time"

// User is the subset of the platform user record the auth flow touches.
// RefreshToken holds a bcrypt hash when the password flow has an open
// session, nil otherwise.
type User struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Username     string  `gorm:"size:255;uniqueIndex;not null"`
	RefreshToken *string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Wallet links an on-chain address to exactly one local user. A user may
// link any number of wallets.
type Wallet struct {
	ID        string `gorm:"primaryKey;size:36"`
	Address   string `gorm:"size:255;uniqueIndex;not null"`
	IsPrimary bool   `gorm:"not null;default:false"`
	UserID    string `gorm:"size:36;index;not null"`
	CreatedAt time.Time
}

// RevokedToken records a token that must be rejected even before its own
// expiry. Rows are append-only.
type RevokedToken struct {
	ID        string `gorm:"primaryKey;size:36"`
	Token     string `gorm:"size:1024;uniqueIndex;not null"`
	UserID    string `gorm:"size:36;index;not null"`
	CreatedAt time.Time
}

// Resolution tags whether identity resolution found an existing user or
// provisioned a new one for a first-time address.
type Resolution int

const (
	IdentityExisting Resolution = iota
	IdentityCreated
)

// String implements fmt.Stringer.
func (r Resolution) String() string {
	if r == IdentityCreated {
		return "created"
	}
	return "existing"
}
