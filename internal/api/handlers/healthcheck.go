package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/api/middleware"
	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/db"
	"github.com/forceweaver/orghealth/internal/usage"
	"github.com/forceweaver/orghealth/internal/version"
)

const toolHealthCheck = "health_check"

type HealthCheckRequest struct {
	OrgIdentifier string   `json:"org_identifier"`
	CheckTypes    []string `json:"check_types"`
	APIVersion    string   `json:"api_version"`
}

// RunHealthCheck is the main diagnostic entrypoint: resolve the caller's org
// connection, obtain a live session, negotiate the API version, run the
// requested checks and return the scored report. Every invocation, failed or
// not, leaves a usage record.
func (h *Handler) RunHealthCheck(c *gin.Context) {
	apiKey := c.MustGet(middleware.ContextAPIKey).(*core.APIKey)
	start := time.Now()

	var req HealthCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.APIVersion != "" && !version.IsSupported(req.APIVersion) {
		respondError(c, core.NewError(core.KindValidation,
			"unsupported API version requested",
			"supported versions: "+strings.Join(version.Supported, ", ")))
		return
	}

	conn, err := h.resolveConnection(apiKey.UserID, req.OrgIdentifier)
	if err != nil {
		h.recordUsage(apiKey, nil, nil, false, core.KindOf(err), start)
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()

	session, err := h.manager.GetLiveSession(ctx, conn)
	if err != nil {
		h.metrics.RecordCredentialExchange("error")
		h.recordUsage(apiKey, conn, nil, false, core.KindOf(err), start)
		respondError(c, err)
		return
	}
	h.metrics.RecordCredentialExchange("ok")

	apiVersion, err := h.negotiator.Negotiate(ctx, conn, session, req.APIVersion)
	if err != nil {
		h.recordUsage(apiKey, conn, nil, false, core.KindOf(err), start)
		respondError(c, err)
		return
	}

	sessionID := uuid.New().String()

	report, err := h.orchestrator.Run(ctx, session, apiVersion, req.CheckTypes, sessionID)
	if err != nil {
		h.recordUsage(apiKey, conn, nil, false, core.KindOf(err), start)
		respondError(c, err)
		return
	}
	report.OrgIdentifier = conn.OrgIdentifier

	h.metrics.RecordReport(report)
	h.recordUsage(apiKey, conn, report, report.State != core.StateFailed, "", start)

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"report":     report,
	})
}

// resolveConnection picks the named org, or the caller's default when the
// request does not name one.
func (h *Handler) resolveConnection(userID uuid.UUID, orgIdentifier string) (*core.OrgConnection, error) {
	var (
		conn *core.OrgConnection
		err  error
	)
	if orgIdentifier != "" {
		conn, err = h.repo.GetConnectionByIdentifier(userID, orgIdentifier)
	} else {
		conn, err = h.repo.GetDefaultConnection(userID)
	}
	if err != nil {
		if err == db.ErrNotFound {
			return nil, core.NewError(core.KindNotFound,
				"no matching org connection",
				"connect a Salesforce org first via POST /api/v1/orgs")
		}
		return nil, core.WrapError(core.KindInternal, "connection lookup failed", "", err)
	}
	return conn, nil
}

func (h *Handler) recordUsage(apiKey *core.APIKey, conn *core.OrgConnection, report *core.HealthReport, success bool, errKind core.ErrorKind, start time.Time) {
	entry := usage.Entry{
		UserID:   apiKey.UserID,
		APIKeyID: apiKey.ID,
		ToolName: toolHealthCheck,
		Success:  success,
		Duration: time.Since(start),
	}
	if conn != nil {
		id := conn.ID
		entry.OrgConnectionID = &id
	}
	if report != nil {
		for _, result := range report.Results {
			if result.Status != core.StatusSkipped {
				entry.ChecksExecuted = append(entry.ChecksExecuted, result.Name)
			}
		}
	}
	if errKind != "" {
		entry.ErrorMessage = string(errKind)
	}
	h.usage.Record(entry)

	if !success && errKind != "" {
		h.logger.Warn("health check invocation failed",
			zap.String("user_id", apiKey.UserID.String()),
			zap.String("kind", string(errKind)),
		)
	}
}
