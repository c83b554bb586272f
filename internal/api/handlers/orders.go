package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/api/middleware"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/service"
)

// OrderService is what the order handlers need from the service layer
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, []*domain.OrderItem, error)
}

// OrderResponse represents the order response
type OrderResponse struct {
	*domain.Order
	Items []*domain.OrderItem `json:"items"`
}

// HandleCreateOrder handles POST /orders
func HandleCreateOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		result, err := orders.CreateOrder(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, logger, "Failed to create order", err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// HandleGetOrder handles GET /orders/:id
func HandleGetOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, items, err := orders.GetOrder(c.Request.Context(), userID, orderID)
		if err != nil {
			respondError(c, logger, "Failed to get order", err)
			return
		}

		if items == nil {
			items = []*domain.OrderItem{}
		}
		c.JSON(http.StatusOK, OrderResponse{Order: order, Items: items})
	}
}
