package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/db"
)

// KeyPrefix marks issued secrets so malformed tokens are rejected before any
// store access.
const KeyPrefix = "fw_"

const displayPrefixLen = 10

type KeyStore interface {
	GetActiveAPIKeyByHash(hash string) (*core.APIKey, error)
	TouchAPIKey(id uuid.UUID, usedAt time.Time) error
}

type Metrics interface {
	RecordAuthAttempt(outcome string)
}

// Authenticator maps opaque bearer tokens to API key records. Only the
// SHA-256 digest is ever compared or stored, so lookup cost does not depend
// on the candidate's content.
type Authenticator struct {
	store   KeyStore
	logger  *zap.Logger
	metrics Metrics
}

func NewAuthenticator(store KeyStore, logger *zap.Logger, metrics Metrics) *Authenticator {
	return &Authenticator{store: store, logger: logger, metrics: metrics}
}

// Authenticate resolves a bearer token to its key record. The last-used
// update is asynchronous and best-effort; it can never fail or delay the
// authentication decision.
func (a *Authenticator) Authenticate(ctx context.Context, bearer string) (*core.APIKey, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" || !strings.HasPrefix(bearer, KeyPrefix) || len(bearer) < displayPrefixLen {
		a.record("invalid_format")
		return nil, core.ErrInvalidFormat
	}

	key, err := a.store.GetActiveAPIKeyByHash(HashKey(bearer))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.record("unauthorized")
			return nil, core.ErrUnauthorized
		}
		a.record("error")
		return nil, core.WrapError(core.KindInternal, "key lookup failed", "", err)
	}

	go func(id uuid.UUID) {
		if err := a.store.TouchAPIKey(id, time.Now().UTC()); err != nil {
			a.logger.Warn("failed to update key usage",
				zap.String("api_key_id", id.String()),
				zap.Error(err),
			)
		}
	}(key.ID)

	a.record("ok")
	return key, nil
}

func (a *Authenticator) record(outcome string) {
	if a.metrics != nil {
		a.metrics.RecordAuthAttempt(outcome)
	}
}

// HashKey computes the irreversible digest stored in place of the secret.
func HashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// GenerateKey mints a new secret. The plaintext is returned exactly once;
// callers persist only the hash and the display prefix.
func GenerateKey() (plaintext, hash, prefix string, err error) {
	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", "", "", err
	}
	plaintext = KeyPrefix + base64.RawURLEncoding.EncodeToString(raw)
	return plaintext, HashKey(plaintext), plaintext[:displayPrefixLen], nil
}
