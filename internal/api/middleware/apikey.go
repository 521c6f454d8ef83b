package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/forceweaver/orghealth/internal/auth"
	"github.com/forceweaver/orghealth/internal/core"
)

const (
	ContextAPIKey = "api_key"
	ContextUserID = "user_id"
)

// APIKeyRequired authenticates machine callers by bearer token. On success
// the key record and its owning user land in the gin context.
func APIKeyRequired(authenticator *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || token == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer token required",
				"hint":  "send the issued key as 'Authorization: Bearer fw_...'",
			})
			c.Abort()
			return
		}

		key, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			body := gin.H{"error": "Invalid or revoked API key"}
			var coreErr *core.Error
			if errors.As(err, &coreErr) {
				status = coreErr.StatusCode()
				body = gin.H{"error": coreErr.Message, "kind": string(coreErr.Kind)}
				if coreErr.Hint != "" {
					body["hint"] = coreErr.Hint
				}
			}
			c.JSON(status, body)
			c.Abort()
			return
		}

		c.Set(ContextAPIKey, key)
		c.Set(ContextUserID, key.UserID.String())
		c.Next()
	}
}
