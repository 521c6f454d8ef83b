package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/forceweaver/orghealth/internal/core"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping() error {
	return r.db.Ping()
}

// User operations

func (r *Repository) CreateUser(u *core.User) error {
	query := `
        INSERT INTO users (id, email, name, password_hash, is_active, created_at, updated_at)
        VALUES (:id, :email, :name, :password_hash, :is_active, :created_at, :updated_at)`

	_, err := r.db.NamedExec(query, u)
	return err
}

func (r *Repository) GetUserByEmail(email string) (*core.User, error) {
	var u core.User
	err := r.db.Get(&u, `SELECT * FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &u, err
}

func (r *Repository) GetUser(id uuid.UUID) (*core.User, error) {
	var u core.User
	err := r.db.Get(&u, `SELECT * FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &u, err
}

func (r *Repository) EmailExists(email string) (bool, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM users WHERE email = $1`, email)
	return count > 0, err
}

// API key operations

func (r *Repository) CreateAPIKey(k *core.APIKey) error {
	query := `
        INSERT INTO api_keys (
            id, user_id, key_hash, key_prefix, name, is_active,
            usage_count, rate_limit_tier, created_at
        ) VALUES (
            :id, :user_id, :key_hash, :key_prefix, :name, :is_active,
            :usage_count, :rate_limit_tier, :created_at
        )`

	_, err := r.db.NamedExec(query, k)
	return err
}

// GetActiveAPIKeyByHash looks a key up by its digest. The digest index makes
// the lookup time independent of the candidate secret's content.
func (r *Repository) GetActiveAPIKeyByHash(hash string) (*core.APIKey, error) {
	var k core.APIKey
	query := `SELECT * FROM api_keys WHERE key_hash = $1 AND is_active = true`
	err := r.db.Get(&k, query, hash)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &k, err
}

func (r *Repository) GetAPIKeysByUser(userID uuid.UUID) ([]*core.APIKey, error) {
	keys := []*core.APIKey{}
	query := `SELECT * FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`
	err := r.db.Select(&keys, query, userID)
	return keys, err
}

// DeactivateAPIKey revokes logically. Rows are never deleted, for audit.
func (r *Repository) DeactivateAPIKey(id, userID uuid.UUID) error {
	res, err := r.db.Exec(
		`UPDATE api_keys SET is_active = false WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) TouchAPIKey(id uuid.UUID, usedAt time.Time) error {
	_, err := r.db.Exec(
		`UPDATE api_keys SET last_used = $2, usage_count = usage_count + 1 WHERE id = $1`,
		id, usedAt)
	return err
}

// Org connection operations

func (r *Repository) CreateOrgConnection(c *core.OrgConnection) error {
	query := `
        INSERT INTO org_connections (
            id, user_id, org_identifier, org_name, instance_url, salesforce_org_id,
            refresh_token_encrypted, secret_scheme, is_sandbox, is_active,
            oauth_completed, usage_count, created_at, updated_at
        ) VALUES (
            :id, :user_id, :org_identifier, :org_name, :instance_url, :salesforce_org_id,
            :refresh_token_encrypted, :secret_scheme, :is_sandbox, :is_active,
            :oauth_completed, :usage_count, :created_at, :updated_at
        )`

	_, err := r.db.NamedExec(query, c)
	return err
}

func (r *Repository) GetConnectionsByUser(userID uuid.UUID) ([]*core.OrgConnection, error) {
	conns := []*core.OrgConnection{}
	query := `
        SELECT * FROM org_connections
        WHERE user_id = $1 AND is_active = true
        ORDER BY created_at DESC`
	err := r.db.Select(&conns, query, userID)
	return conns, err
}

func (r *Repository) GetConnectionByIdentifier(userID uuid.UUID, orgIdentifier string) (*core.OrgConnection, error) {
	var c core.OrgConnection
	query := `
        SELECT * FROM org_connections
        WHERE user_id = $1 AND org_identifier = $2 AND is_active = true`
	err := r.db.Get(&c, query, userID, orgIdentifier)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &c, err
}

// GetDefaultConnection returns the caller's most recently connected org,
// for requests that do not name one.
func (r *Repository) GetDefaultConnection(userID uuid.UUID) (*core.OrgConnection, error) {
	var c core.OrgConnection
	query := `
        SELECT * FROM org_connections
        WHERE user_id = $1 AND is_active = true AND oauth_completed = true
        ORDER BY created_at DESC
        LIMIT 1`
	err := r.db.Get(&c, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &c, err
}

// DeactivateConnection flips the status flag; the row and its history stay.
func (r *Repository) DeactivateConnection(id, userID uuid.UUID) error {
	res, err := r.db.Exec(
		`UPDATE org_connections SET is_active = false, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAccessState records a successful credential exchange: endpoint and
// auth timestamp move together in one write so an endpoint migration is
// never split. Last writer wins on overlapping refreshes.
func (r *Repository) UpdateAccessState(id uuid.UUID, instanceURL string, authAt time.Time) error {
	_, err := r.db.Exec(`
        UPDATE org_connections SET
            instance_url = $2,
            last_auth = $3,
            last_error = NULL,
            usage_count = usage_count + 1,
            updated_at = NOW()
        WHERE id = $1`,
		id, instanceURL, authAt)
	return err
}

func (r *Repository) UpdateNegotiatedVersion(id uuid.UUID, version string) error {
	_, err := r.db.Exec(
		`UPDATE org_connections SET last_api_version = $2, updated_at = NOW() WHERE id = $1`,
		id, version)
	return err
}

func (r *Repository) SetConnectionError(id uuid.UUID, message string) error {
	_, err := r.db.Exec(
		`UPDATE org_connections SET last_error = $2, updated_at = NOW() WHERE id = $1`,
		id, message)
	return err
}

// Usage log operations

func (r *Repository) InsertUsageLog(l *core.UsageLog) error {
	query := `
        INSERT INTO usage_logs (
            id, user_id, api_key_id, org_connection_id, tool_name, checks_executed,
            success, error_message, execution_time_ms, cost_units, request_id, created_at
        ) VALUES (
            :id, :user_id, :api_key_id, :org_connection_id, :tool_name, :checks_executed,
            :success, :error_message, :execution_time_ms, :cost_units, :request_id, :created_at
        )`

	_, err := r.db.NamedExec(query, l)
	return err
}

func (r *Repository) GetUsageLogsByUser(userID uuid.UUID, limit, offset int) ([]*core.UsageLog, error) {
	logs := []*core.UsageLog{}
	query := `
        SELECT * FROM usage_logs
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	err := r.db.Select(&logs, query, userID, limit, offset)
	return logs, err
}

type UsageStats struct {
	TotalCalls      int `json:"total_calls" db:"total_calls"`
	SuccessfulCalls int `json:"successful_calls" db:"successful_calls"`
	TotalCostUnits  int `json:"total_cost_units" db:"total_cost_units"`
}

func (r *Repository) GetUsageStats(userID uuid.UUID, since time.Time) (*UsageStats, error) {
	var s UsageStats
	query := `
        SELECT
            COUNT(*) AS total_calls,
            COUNT(*) FILTER (WHERE success) AS successful_calls,
            COALESCE(SUM(cost_units), 0) AS total_cost_units
        FROM usage_logs
        WHERE user_id = $1 AND created_at >= $2`
	err := r.db.Get(&s, query, userID, since)
	return &s, err
}
