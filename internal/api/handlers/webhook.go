package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/service"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

type WebhookReconciler interface {
	Reconcile(ctx context.Context, event domain.PaymentWebhookEvent) (*service.WebhookResult, error)
}

var outcomeMessages = map[service.WebhookOutcome]string{
	service.OutcomeProcessed:        "Payment processed",
	service.OutcomeAlreadyProcessed: "Payment already processed",
	service.OutcomeAcknowledged:     "Status received",
}

// HandlePaymentWebhook handles POST /payment/webhook.
// Malformed payloads get 4xx so the provider stops retrying; store failures
// get 5xx so it retries.
func HandlePaymentWebhook(reconciler WebhookReconciler, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload service.WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			logger.Warn("Malformed payment webhook", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid payload"})
			return
		}

		result, err := reconciler.Reconcile(c.Request.Context(), payload.ToEvent())
		if err != nil {
			var badRequest *pkgerrors.ErrBadRequest
			var notFound *pkgerrors.ErrNotFound
			switch {
			case errors.As(err, &badRequest):
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": badRequest.Message})
			case errors.As(err, &notFound):
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "order not found"})
			default:
				logger.Error("Payment webhook processing failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "processing failed"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"message":         outcomeMessages[result.Outcome],
			"outcome":         result.Outcome,
			"order_code":      result.OrderNumber,
			"amount_mismatch": result.AmountMismatch,
			"needs_review":    result.NeedsReview,
		})
	}
}

// HandleWebhookHealth handles GET /payment/webhook
func HandleWebhookHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-webhook"})
	}
}
