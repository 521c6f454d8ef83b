package connection

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/secrets"
	"github.com/forceweaver/orghealth/pkg/salesforce"
)

// Store is the slice of the repository the manager mutates.
type Store interface {
	UpdateAccessState(id uuid.UUID, instanceURL string, authAt time.Time) error
	SetConnectionError(id uuid.UUID, message string) error
}

// Exchanger trades a refresh token for an access token.
type Exchanger interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string, sandbox bool) (*salesforce.TokenResponse, error)
}

// Manager owns the lifecycle of a connection's remote credential: decrypt on
// demand, exchange, record the outcome. The access token is never persisted.
type Manager struct {
	codec      *secrets.Codec
	exchanger  Exchanger
	store      Store
	logger     *zap.Logger
	maxRetries int
}

func NewManager(codec *secrets.Codec, exchanger Exchanger, store Store, logger *zap.Logger, maxRetries int) *Manager {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Manager{
		codec:      codec,
		exchanger:  exchanger,
		store:      store,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// GetLiveSession produces a usable access credential for the connection.
// Transient exchange failures are retried with exponential backoff up to the
// attempt budget; revocation and corrupt secrets are surfaced immediately.
func (m *Manager) GetLiveSession(ctx context.Context, conn *core.OrgConnection) (core.Session, error) {
	if !conn.OAuthCompleted || conn.RefreshTokenEncrypted == "" {
		return core.Session{}, core.NewError(core.KindCredentialRevoked,
			"the org connection was never authorized",
			core.ErrCredentialRevoked.Hint)
	}

	refreshToken, err := m.codec.Decrypt(conn.RefreshTokenEncrypted)
	if err != nil {
		// Operator problem, not a tenant problem. Non-retryable.
		m.logger.Error("refresh token decryption failed",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
		return core.Session{}, err
	}

	var token *salesforce.TokenResponse
	attempts := 0

	operation := func() error {
		attempts++
		t, err := m.exchanger.ExchangeRefreshToken(ctx, refreshToken, conn.IsSandbox)
		if err != nil {
			if errors.Is(err, core.ErrCredentialRevoked) {
				return backoff.Permanent(err)
			}
			m.logger.Warn("credential exchange failed, will retry",
				zap.String("connection_id", conn.ID.String()),
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
			return err
		}
		token = t
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newExchangeBackoff(), uint64(m.maxRetries-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		m.recordFailure(conn, err)
		if errors.Is(err, core.ErrCredentialRevoked) {
			return core.Session{}, err
		}
		return core.Session{}, core.WrapError(core.KindConnectionFailed,
			core.ErrConnectionFailed.Message, core.ErrConnectionFailed.Hint, err)
	}

	session := core.Session{
		AccessToken: token.AccessToken,
		InstanceURL: token.InstanceURL,
	}
	if session.InstanceURL == "" {
		session.InstanceURL = conn.InstanceURL
	}

	// Endpoint and auth state move in one write; an instance migration must
	// never be split across updates.
	if err := m.store.UpdateAccessState(conn.ID, session.InstanceURL, time.Now()); err != nil {
		m.logger.Error("failed to persist access state",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
	}
	conn.InstanceURL = session.InstanceURL

	return session, nil
}

func (m *Manager) recordFailure(conn *core.OrgConnection, cause error) {
	kind := string(core.KindOf(cause))
	if err := m.store.SetConnectionError(conn.ID, kind); err != nil {
		m.logger.Warn("failed to record connection error",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
	}
}

func newExchangeBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}
