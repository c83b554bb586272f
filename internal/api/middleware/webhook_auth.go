package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// WebhookAuth checks the provider's "Authorization: Apikey <key>" header
// against a bcrypt hash. An empty hash disables the check.
func WebhookAuth(keyHash string, logger *zap.Logger) gin.HandlerFunc {
	if keyHash == "" {
		logger.Warn("Payment webhook authentication disabled, PAYMENT_WEBHOOK_KEY_HASH not set")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		const prefix = "apikey "
		header := c.GetHeader("Authorization")
		if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			logger.Warn("Webhook call without API key", zap.String("remote", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}

		key := strings.TrimSpace(header[len(prefix):])
		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			logger.Warn("Webhook call with invalid API key", zap.String("remote", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}

		c.Next()
	}
}
