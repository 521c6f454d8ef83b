package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/auth"
	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/db"
)

type CreateKeyRequest struct {
	Name          string `json:"name" binding:"required"`
	RateLimitTier string `json:"rate_limit_tier"`
}

func (h *Handler) ListKeys(c *gin.Context) {
	userID := uuid.MustParse(c.GetString("user_id"))

	keys, err := h.repo.GetAPIKeysByUser(userID)
	if err != nil {
		h.logger.Error("failed to list api keys", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list API keys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// CreateKey mints a new API key. The plaintext appears in this response and
// nowhere else; only its digest is stored.
func (h *Handler) CreateKey(c *gin.Context) {
	userID := uuid.MustParse(c.GetString("user_id"))

	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RateLimitTier == "" {
		req.RateLimitTier = "free"
	}

	plaintext, hash, prefix, err := auth.GenerateKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate key"})
		return
	}

	key := &core.APIKey{
		ID:            uuid.New(),
		UserID:        userID,
		KeyHash:       hash,
		KeyPrefix:     prefix,
		Name:          req.Name,
		IsActive:      true,
		RateLimitTier: req.RateLimitTier,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.repo.CreateAPIKey(key); err != nil {
		h.logger.Error("failed to create api key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":       key,
		"plaintext": plaintext,
		"warning":   "store this key now; it cannot be shown again",
	})
}

// RevokeKey deactivates a key. The record stays for audit; the key just
// stops authenticating.
func (h *Handler) RevokeKey(c *gin.Context) {
	userID := uuid.MustParse(c.GetString("user_id"))

	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid key id"})
		return
	}

	if err := h.repo.DeactivateAPIKey(keyID, userID); err != nil {
		if err == db.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		h.logger.Error("failed to revoke api key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke API key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
