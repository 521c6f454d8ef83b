package core

import (
	"time"

	"github.com/google/uuid"
)

// APIKey stores only the SHA-256 digest of the issued secret. The plaintext
// exists once, at issuance, and is returned to the caller exactly once.
type APIKey struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"-" db:"user_id"`
	KeyHash       string     `json:"-" db:"key_hash"`
	KeyPrefix     string     `json:"key_prefix" db:"key_prefix"`
	Name          string     `json:"name" db:"name"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	LastUsed      *time.Time `json:"last_used,omitempty" db:"last_used"`
	UsageCount    int        `json:"usage_count" db:"usage_count"`
	RateLimitTier string     `json:"rate_limit_tier" db:"rate_limit_tier"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
