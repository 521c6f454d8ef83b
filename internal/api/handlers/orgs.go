package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/db"
	"github.com/forceweaver/orghealth/internal/secrets"
)

// CreateOrgRequest seeds a connection row. The refresh token arrives from an
// external OAuth collaborator and is encrypted before it touches the
// database.
type CreateOrgRequest struct {
	OrgIdentifier   string `json:"org_identifier" binding:"required"`
	OrgName         string `json:"org_name"`
	InstanceURL     string `json:"instance_url"`
	SalesforceOrgID string `json:"salesforce_org_id"`
	RefreshToken    string `json:"refresh_token" binding:"required"`
	IsSandbox       bool   `json:"is_sandbox"`
}

func (h *Handler) ListOrgs(c *gin.Context) {
	userID := uuid.MustParse(c.GetString("user_id"))

	conns, err := h.repo.GetConnectionsByUser(userID)
	if err != nil {
		h.logger.Error("failed to list org connections", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list org connections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orgs": conns})
}

func (h *Handler) CreateOrg(c *gin.Context) {
	userID := uuid.MustParse(c.GetString("user_id"))

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encrypted, err := h.codec.Encrypt(req.RefreshToken)
	if err != nil {
		h.logger.Error("failed to encrypt refresh token", zap.Error(err))
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	conn := &core.OrgConnection{
		ID:                    uuid.New(),
		UserID:                userID,
		OrgIdentifier:         req.OrgIdentifier,
		OrgName:               req.OrgName,
		InstanceURL:           req.InstanceURL,
		SalesforceOrgID:       req.SalesforceOrgID,
		RefreshTokenEncrypted: encrypted,
		SecretScheme:          secrets.SchemeVersion,
		IsSandbox:             req.IsSandbox,
		IsActive:              true,
		OAuthCompleted:        true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := h.repo.CreateOrgConnection(conn); err != nil {
		h.logger.Error("failed to create org connection", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create org connection; identifier may already be in use"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"org": conn})
}

func (h *Handler) DeleteOrg(c *gin.Context) {
	userID := uuid.MustParse(c.GetString("user_id"))

	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid org id"})
		return
	}

	if err := h.repo.DeactivateConnection(orgID, userID); err != nil {
		if err == db.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Org connection not found"})
			return
		}
		h.logger.Error("failed to deactivate org connection", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete org connection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}
