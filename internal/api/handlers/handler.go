package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/config"
	"github.com/forceweaver/orghealth/internal/connection"
	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/db"
	"github.com/forceweaver/orghealth/internal/health"
	"github.com/forceweaver/orghealth/internal/metrics"
	"github.com/forceweaver/orghealth/internal/secrets"
	"github.com/forceweaver/orghealth/internal/storage/redis"
	"github.com/forceweaver/orghealth/internal/usage"
	"github.com/forceweaver/orghealth/internal/version"
)

type Handler struct {
	repo         *db.Repository
	cfg          *config.Config
	codec        *secrets.Codec
	manager      *connection.Manager
	negotiator   *version.Negotiator
	orchestrator *health.Orchestrator
	usage        *usage.Service
	cache        *redis.Client
	metrics      *metrics.Collector
	logger       *zap.Logger
}

func NewHandler(
	repo *db.Repository,
	cfg *config.Config,
	codec *secrets.Codec,
	manager *connection.Manager,
	negotiator *version.Negotiator,
	orchestrator *health.Orchestrator,
	usageSvc *usage.Service,
	cache *redis.Client,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		repo:         repo,
		cfg:          cfg,
		codec:        codec,
		manager:      manager,
		negotiator:   negotiator,
		orchestrator: orchestrator,
		usage:        usageSvc,
		cache:        cache,
		metrics:      collector,
		logger:       logger,
	}
}

// respondError translates the error taxonomy into an HTTP envelope. Only the
// curated message and hint ever reach the caller.
func respondError(c *gin.Context, err error) {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		body := gin.H{
			"error": coreErr.Message,
			"kind":  string(coreErr.Kind),
		}
		if coreErr.Hint != "" {
			body["hint"] = coreErr.Hint
		}
		c.JSON(coreErr.StatusCode(), body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
