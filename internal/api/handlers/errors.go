package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

// statusFor maps the error taxonomy onto HTTP status codes and a message
// that is safe to show to customers.
func statusFor(err error) (int, string) {
	var (
		unauthorized *pkgerrors.ErrUnauthorized
		forbidden    *pkgerrors.ErrForbidden
		badRequest   *pkgerrors.ErrBadRequest
		notFound     *pkgerrors.ErrNotFound
		configErr    *pkgerrors.ErrConfiguration
		gatewayErr   *pkgerrors.ErrPaymentGateway
	)

	switch {
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.As(err, &forbidden):
		return http.StatusForbidden, "access denied"
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, badRequest.Message
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Resource + " not found"
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable, "payment is temporarily unavailable"
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway, gatewayErr.Message
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status, public := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Info(msg, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": public})
}
