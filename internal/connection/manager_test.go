package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/secrets"
	"github.com/forceweaver/orghealth/pkg/salesforce"
)

type fakeExchanger struct {
	mu        sync.Mutex
	calls     int
	responses []exchangeOutcome
}

type exchangeOutcome struct {
	token *salesforce.TokenResponse
	err   error
}

func (f *fakeExchanger) ExchangeRefreshToken(ctx context.Context, refreshToken string, sandbox bool) (*salesforce.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome := f.responses[len(f.responses)-1]
	if f.calls < len(f.responses) {
		outcome = f.responses[f.calls]
	}
	f.calls++
	return outcome.token, outcome.err
}

type fakeConnStore struct {
	mu          sync.Mutex
	accessCalls int
	lastURL     string
	lastErrMsg  string
}

func (s *fakeConnStore) UpdateAccessState(id uuid.UUID, instanceURL string, authAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessCalls++
	s.lastURL = instanceURL
	return nil
}

func (s *fakeConnStore) SetConnectionError(id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErrMsg = message
	return nil
}

func testConnection(t *testing.T, codec *secrets.Codec) *core.OrgConnection {
	t.Helper()
	encrypted, err := codec.Encrypt("refresh-token-value")
	require.NoError(t, err)
	return &core.OrgConnection{
		ID:                    uuid.New(),
		OrgIdentifier:         "acme-prod",
		InstanceURL:           "https://old.my.salesforce.com",
		RefreshTokenEncrypted: encrypted,
		SecretScheme:          secrets.SchemeVersion,
		OAuthCompleted:        true,
		IsActive:              true,
	}
}

func newTestCodec(t *testing.T) *secrets.Codec {
	t.Helper()
	codec, err := secrets.NewCodec("unit-test-encryption-key")
	require.NoError(t, err)
	return codec
}

func TestGetLiveSessionSuccess(t *testing.T) {
	codec := newTestCodec(t)
	exchanger := &fakeExchanger{responses: []exchangeOutcome{{
		token: &salesforce.TokenResponse{
			AccessToken: "access-1",
			InstanceURL: "https://new.my.salesforce.com",
		},
	}}}
	store := &fakeConnStore{}
	m := NewManager(codec, exchanger, store, zap.NewNop(), 3)

	conn := testConnection(t, codec)
	session, err := m.GetLiveSession(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, "access-1", session.AccessToken)
	assert.Equal(t, "https://new.my.salesforce.com", session.InstanceURL)
	// endpoint migration lands on the stored connection too
	assert.Equal(t, "https://new.my.salesforce.com", conn.InstanceURL)
	assert.Equal(t, 1, store.accessCalls)
	assert.Equal(t, "https://new.my.salesforce.com", store.lastURL)
}

func TestGetLiveSessionRevokedNotRetried(t *testing.T) {
	codec := newTestCodec(t)
	exchanger := &fakeExchanger{responses: []exchangeOutcome{{
		err: core.ErrCredentialRevoked,
	}}}
	store := &fakeConnStore{}
	m := NewManager(codec, exchanger, store, zap.NewNop(), 3)

	_, err := m.GetLiveSession(context.Background(), testConnection(t, codec))
	assert.True(t, errors.Is(err, core.ErrCredentialRevoked))
	assert.Equal(t, 1, exchanger.calls, "revocation must not be retried")
	assert.Equal(t, string(core.KindCredentialRevoked), store.lastErrMsg)
}

func TestGetLiveSessionTransientExhaustion(t *testing.T) {
	codec := newTestCodec(t)
	exchanger := &fakeExchanger{responses: []exchangeOutcome{{
		err: core.ErrRemoteUnavailable,
	}}}
	store := &fakeConnStore{}
	m := NewManager(codec, exchanger, store, zap.NewNop(), 3)

	_, err := m.GetLiveSession(context.Background(), testConnection(t, codec))
	assert.True(t, errors.Is(err, core.ErrConnectionFailed))
	// the transient cause stays reachable under the wrapper
	assert.True(t, errors.Is(err, core.ErrRemoteUnavailable))
	assert.Equal(t, 3, exchanger.calls)
	assert.Equal(t, 0, store.accessCalls)
}

func TestGetLiveSessionTransientThenSuccess(t *testing.T) {
	codec := newTestCodec(t)
	exchanger := &fakeExchanger{responses: []exchangeOutcome{
		{err: core.ErrRemoteUnavailable},
		{token: &salesforce.TokenResponse{AccessToken: "access-2"}},
	}}
	store := &fakeConnStore{}
	m := NewManager(codec, exchanger, store, zap.NewNop(), 3)

	conn := testConnection(t, codec)
	session, err := m.GetLiveSession(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, "access-2", session.AccessToken)
	// exchange response without an endpoint keeps the stored one
	assert.Equal(t, "https://old.my.salesforce.com", session.InstanceURL)
	assert.Equal(t, 2, exchanger.calls)
}

func TestGetLiveSessionNeverAuthorized(t *testing.T) {
	codec := newTestCodec(t)
	m := NewManager(codec, &fakeExchanger{}, &fakeConnStore{}, zap.NewNop(), 3)

	conn := testConnection(t, codec)
	conn.OAuthCompleted = false

	_, err := m.GetLiveSession(context.Background(), conn)
	assert.True(t, errors.Is(err, core.ErrCredentialRevoked))
}

func TestGetLiveSessionCorruptSecret(t *testing.T) {
	codec := newTestCodec(t)
	exchanger := &fakeExchanger{responses: []exchangeOutcome{{
		token: &salesforce.TokenResponse{AccessToken: "never"},
	}}}
	m := NewManager(codec, exchanger, &fakeConnStore{}, zap.NewNop(), 3)

	conn := testConnection(t, codec)
	conn.RefreshTokenEncrypted = "not-a-valid-ciphertext"

	_, err := m.GetLiveSession(context.Background(), conn)
	assert.True(t, errors.Is(err, core.ErrConfigurationError))
	assert.Equal(t, 0, exchanger.calls, "no exchange with an unreadable secret")
}
