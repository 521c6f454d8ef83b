package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forceweaver/orghealth/internal/core"
)

type Config struct {
	ClientID        string
	ClientSecret    string
	TokenURL        string
	SandboxTokenURL string
	Timeout         time.Duration
}

// Client talks to Salesforce: the OAuth token endpoint on the login host and
// the versioned REST/query endpoints on a tenant's instance.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	ID          string `json:"id"`
}

// ExchangeRefreshToken trades a long-lived refresh token for a short-lived
// access token. A 4xx means the org revoked the grant; 5xx and transport
// failures are transient. Remote error bodies are never passed through.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string, sandbox bool) (*TokenResponse, error) {
	tokenURL := c.cfg.TokenURL
	if sandbox {
		tokenURL = c.cfg.SandboxTokenURL
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.WrapError(core.KindRemoteUnavailable,
			"token endpoint unreachable", core.ErrRemoteUnavailable.Hint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var token TokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
			return nil, core.WrapError(core.KindRemoteUnavailable,
				"token endpoint returned an unreadable response",
				core.ErrRemoteUnavailable.Hint, err)
		}
		return &token, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, core.WrapError(core.KindCredentialRevoked,
			core.ErrCredentialRevoked.Message, core.ErrCredentialRevoked.Hint,
			fmt.Errorf("token endpoint status %d", resp.StatusCode))
	default:
		return nil, core.WrapError(core.KindRemoteUnavailable,
			core.ErrRemoteUnavailable.Message, core.ErrRemoteUnavailable.Hint,
			fmt.Errorf("token endpoint status %d", resp.StatusCode))
	}
}

// VersionReachable probes the root resource of one API version. A 2xx means
// the org serves it; 404 means it does not. Probes are never retried.
func (c *Client) VersionReachable(ctx context.Context, session core.Session, version string) (bool, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/", strings.TrimRight(session.InstanceURL, "/"), version)

	resp, err := c.get(ctx, session, endpoint)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	return false, nil
}

type QueryResult struct {
	TotalSize      int      `json:"totalSize"`
	Done           bool     `json:"done"`
	NextRecordsURL string   `json:"nextRecordsUrl"`
	Records        []Record `json:"records"`
}

// Record is one SOQL row. Relationship fields come back as nested objects.
type Record map[string]interface{}

func (r Record) Str(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

func (r Record) Bool(field string) bool {
	v, _ := r[field].(bool)
	return v
}

func (r Record) Sub(field string) Record {
	if v, ok := r[field].(map[string]interface{}); ok {
		return Record(v)
	}
	return Record{}
}

// Query runs one SOQL query against the negotiated version.
func (c *Client) Query(ctx context.Context, session core.Session, version, soql string) (*QueryResult, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s",
		strings.TrimRight(session.InstanceURL, "/"), version, url.QueryEscape(soql))
	return c.queryURL(ctx, session, endpoint)
}

// QueryAll follows nextRecordsUrl until the result set is exhausted.
func (c *Client) QueryAll(ctx context.Context, session core.Session, version, soql string) (*QueryResult, error) {
	result, err := c.Query(ctx, session, version, soql)
	if err != nil {
		return nil, err
	}

	for !result.Done && result.NextRecordsURL != "" {
		next := strings.TrimRight(session.InstanceURL, "/") + result.NextRecordsURL
		page, err := c.queryURL(ctx, session, next)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, page.Records...)
		result.Done = page.Done
		result.NextRecordsURL = page.NextRecordsURL
	}

	result.TotalSize = len(result.Records)
	return result, nil
}

// SObjectExists is the feature probe used by check units: describing an
// object that is not provisioned in the org answers 404.
func (c *Client) SObjectExists(ctx context.Context, session core.Session, version, name string) (bool, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s/describe",
		strings.TrimRight(session.InstanceURL, "/"), version, name)

	resp, err := c.get(ctx, session, endpoint)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, core.WrapError(core.KindRemoteUnavailable,
			core.ErrRemoteUnavailable.Message, core.ErrRemoteUnavailable.Hint,
			fmt.Errorf("describe %s status %d", name, resp.StatusCode))
	}
}

func (c *Client) queryURL(ctx context.Context, session core.Session, endpoint string) (*QueryResult, error) {
	resp, err := c.get(ctx, session, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result QueryResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, core.WrapError(core.KindRemoteUnavailable,
				"query returned an unreadable response",
				core.ErrRemoteUnavailable.Hint, err)
		}
		return &result, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, core.WrapError(core.KindCredentialRevoked,
			"session rejected by the org", core.ErrCredentialRevoked.Hint,
			fmt.Errorf("query status %d", resp.StatusCode))
	default:
		return nil, core.WrapError(core.KindRemoteUnavailable,
			core.ErrRemoteUnavailable.Message, core.ErrRemoteUnavailable.Hint,
			fmt.Errorf("query status %d", resp.StatusCode))
	}
}

func (c *Client) get(ctx context.Context, session core.Session, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.WrapError(core.KindRemoteUnavailable,
			core.ErrRemoteUnavailable.Message, core.ErrRemoteUnavailable.Hint, err)
	}
	return resp, nil
}
