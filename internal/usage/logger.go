package usage

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/core"
)

type Store interface {
	InsertUsageLog(l *core.UsageLog) error
}

// Service writes the immutable per-invocation billing/audit record. Writes
// are best-effort: a logging failure never fails the invocation it records.
type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

type Entry struct {
	UserID          uuid.UUID
	APIKeyID        uuid.UUID
	OrgConnectionID *uuid.UUID
	ToolName        string
	ChecksExecuted  []string
	Success         bool
	ErrorMessage    string
	Duration        time.Duration
}

// Record persists one entry. Cost is one unit per check executed.
func (s *Service) Record(entry Entry) {
	log := &core.UsageLog{
		ID:              uuid.New(),
		UserID:          entry.UserID,
		APIKeyID:        entry.APIKeyID,
		OrgConnectionID: entry.OrgConnectionID,
		ToolName:        entry.ToolName,
		ChecksExecuted:  entry.ChecksExecuted,
		Success:         entry.Success,
		ExecutionTimeMs: int(entry.Duration.Milliseconds()),
		CostUnits:       len(entry.ChecksExecuted),
		RequestID:       uuid.New().String()[:8],
		CreatedAt:       time.Now().UTC(),
	}
	if entry.ErrorMessage != "" {
		msg := entry.ErrorMessage
		log.ErrorMessage = &msg
	}

	if err := s.store.InsertUsageLog(log); err != nil {
		s.logger.Error("failed to write usage log",
			zap.String("user_id", entry.UserID.String()),
			zap.String("tool", entry.ToolName),
			zap.Error(err),
		)
	}
}
