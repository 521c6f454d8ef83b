package salesforce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceweaver/orghealth/internal/core"
)

func newTestClient(tokenURL string) *Client {
	return NewClient(Config{
		ClientID:        "client-id",
		ClientSecret:    "client-secret",
		TokenURL:        tokenURL,
		SandboxTokenURL: tokenURL,
	})
}

func TestExchangeRefreshTokenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "my-refresh", r.Form.Get("refresh_token"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))

		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: "access-token",
			InstanceURL: "https://acme.my.salesforce.com",
			TokenType:   "Bearer",
		})
	}))
	defer srv.Close()

	token, err := newTestClient(srv.URL).ExchangeRefreshToken(context.Background(), "my-refresh", false)
	require.NoError(t, err)
	assert.Equal(t, "access-token", token.AccessToken)
	assert.Equal(t, "https://acme.my.salesforce.com", token.InstanceURL)
}

func TestExchangeRefreshTokenRevoked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// remote error bodies must never leak into our error
		http.Error(w, `{"error":"invalid_grant","error_description":"token revoked for tenant acme"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ExchangeRefreshToken(context.Background(), "revoked", false)
	assert.True(t, errors.Is(err, core.ErrCredentialRevoked))
	assert.NotContains(t, err.Error(), "tenant acme")
}

func TestExchangeRefreshTokenServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ExchangeRefreshToken(context.Background(), "any", false)
	assert.True(t, errors.Is(err, core.ErrRemoteUnavailable))
}

func TestExchangeRefreshTokenTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv.URL).ExchangeRefreshToken(context.Background(), "any", false)
	assert.True(t, errors.Is(err, core.ErrRemoteUnavailable))
}

func TestVersionReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		if r.URL.Path == "/services/data/v64.0/" {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	session := core.Session{AccessToken: "session-token", InstanceURL: srv.URL}

	reachable, err := client.VersionReachable(context.Background(), session, "v64.0")
	require.NoError(t, err)
	assert.True(t, reachable)

	reachable, err = client.VersionReachable(context.Background(), session, "v58.0")
	require.NoError(t, err)
	assert.False(t, reachable)
}

func TestQueryAllFollowsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/data/v64.0/query":
			json.NewEncoder(w).Encode(QueryResult{
				TotalSize:      2,
				Done:           false,
				NextRecordsURL: "/services/data/v64.0/query/next-page",
				Records:        []Record{{"Id": "1"}},
			})
		case "/services/data/v64.0/query/next-page":
			json.NewEncoder(w).Encode(QueryResult{
				TotalSize: 2,
				Done:      true,
				Records:   []Record{{"Id": "2"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	session := core.Session{AccessToken: "session-token", InstanceURL: srv.URL}

	result, err := client.QueryAll(context.Background(), session, "v64.0", "SELECT Id FROM Product2")
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, 2, result.TotalSize)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "1", result.Records[0].Str("Id"))
	assert.Equal(t, "2", result.Records[1].Str("Id"))
}

func TestQueryExpiredSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	session := core.Session{AccessToken: "stale", InstanceURL: srv.URL}

	_, err := client.Query(context.Background(), session, "v64.0", "SELECT Id FROM Organization")
	assert.True(t, errors.Is(err, core.ErrCredentialRevoked))
}

func TestSObjectExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/services/data/v64.0/sobjects/ProductRelatedComponent/describe" {
			w.Write([]byte(`{"name":"ProductRelatedComponent"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	session := core.Session{AccessToken: "session-token", InstanceURL: srv.URL}

	exists, err := client.SObjectExists(context.Background(), session, "v64.0", "ProductRelatedComponent")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.SObjectExists(context.Background(), session, "v64.0", "AttributePicklist")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecordHelpers(t *testing.T) {
	record := Record{
		"Name":      "Widget",
		"IsActive":  true,
		"TotalSize": 3.0,
		"Parent":    map[string]interface{}{"Type": "Bundle"},
	}

	assert.Equal(t, "Widget", record.Str("Name"))
	assert.Empty(t, record.Str("Missing"))
	assert.True(t, record.Bool("IsActive"))
	assert.False(t, record.Bool("Missing"))
	assert.Equal(t, "Bundle", record.Sub("Parent").Str("Type"))
	assert.Empty(t, record.Sub("Missing").Str("Type"))
}
