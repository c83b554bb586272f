package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/service"
)

type PaymentInitiator interface {
	InitiateSession(ctx context.Context, req service.PaymentSessionRequest) (*service.PaymentSessionResult, error)
}

type StatusChecker interface {
	CheckStatus(ctx context.Context, orderCode string) (*service.PaymentStatusResult, error)
}

// HandleCreatePaymentSession handles POST /payment/session
func HandleCreatePaymentSession(payments PaymentInitiator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.PaymentSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		result, err := payments.InitiateSession(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, "Failed to create payment session", err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandlePaymentReturn handles GET /payment/return. It only forwards the
// browser; the webhook decides whether the order is paid.
func HandlePaymentReturn(storefrontURL string) gin.HandlerFunc {
	base := strings.TrimSuffix(storefrontURL, "/")

	return func(c *gin.Context) {
		orderCode := strings.TrimSpace(c.Query("order_code"))
		if orderCode == "" {
			orderCode = strings.TrimSpace(c.Query("orderCode"))
		}
		if orderCode == "" {
			c.Redirect(http.StatusFound, base+"/")
			return
		}

		q := url.Values{}
		q.Set("orderCode", orderCode)
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			q.Set("status", status)
		}
		c.Redirect(http.StatusFound, base+"/order-confirmation?"+q.Encode())
	}
}

// HandlePaymentStatus handles GET /payment/status
func HandlePaymentStatus(checker StatusChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderCode := c.Query("orderCode")
		if strings.TrimSpace(orderCode) == "" {
			orderCode = c.Query("order_code")
		}

		result, err := checker.CheckStatus(c.Request.Context(), orderCode)
		if err != nil {
			code, msg := statusFor(err)
			if code >= http.StatusInternalServerError {
				logger.Error("Failed to check payment status", zap.Error(err))
			}
			c.JSON(code, gin.H{"success": false, "error": msg})
			return
		}

		var paymentStatus interface{}
		if result.Order != nil {
			paymentStatus = result.Order.PaymentStatus
		}

		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"isPaid":         result.IsPaid,
			"order":          result.Order,
			"payment_status": paymentStatus,
		})
	}
}
