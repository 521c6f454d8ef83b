package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UsageLog is one immutable billing/audit record per invocation.
type UsageLog struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	UserID          uuid.UUID      `json:"-" db:"user_id"`
	APIKeyID        uuid.UUID      `json:"api_key_id" db:"api_key_id"`
	OrgConnectionID *uuid.UUID     `json:"org_connection_id,omitempty" db:"org_connection_id"`
	ToolName        string         `json:"tool_name" db:"tool_name"`
	ChecksExecuted  pq.StringArray `json:"checks_executed" db:"checks_executed"`
	Success         bool           `json:"success" db:"success"`
	ErrorMessage    *string        `json:"error_message,omitempty" db:"error_message"`
	ExecutionTimeMs int            `json:"execution_time_ms" db:"execution_time_ms"`
	CostUnits       int            `json:"cost_units" db:"cost_units"`
	RequestID       string         `json:"request_id" db:"request_id"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}
