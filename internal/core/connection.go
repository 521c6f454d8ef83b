package core

import (
	"time"

	"github.com/google/uuid"
)

// OrgConnection is the stored link between a user and one Salesforce org.
// The refresh token is kept encrypted at rest; the short-lived access token
// obtained from it is never persisted.
type OrgConnection struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"-" db:"user_id"`
	OrgIdentifier   string    `json:"org_identifier" db:"org_identifier"`
	OrgName         string    `json:"org_name" db:"org_name"`
	InstanceURL     string    `json:"instance_url" db:"instance_url"`
	SalesforceOrgID string    `json:"salesforce_org_id" db:"salesforce_org_id"`

	RefreshTokenEncrypted string `json:"-" db:"refresh_token_encrypted"`
	SecretScheme          int    `json:"-" db:"secret_scheme"`

	IsSandbox      bool       `json:"is_sandbox" db:"is_sandbox"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	OAuthCompleted bool       `json:"oauth_completed" db:"oauth_completed"`
	LastAPIVersion *string    `json:"last_api_version,omitempty" db:"last_api_version"`
	LastAuth       *time.Time `json:"last_auth,omitempty" db:"last_auth"`
	LastError      *string    `json:"last_error,omitempty" db:"last_error"`
	UsageCount     int        `json:"usage_count" db:"usage_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Session is the in-memory product of a credential exchange. It lives for a
// single orchestration and is treated as an immutable value.
type Session struct {
	AccessToken string
	InstanceURL string
}
