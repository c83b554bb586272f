package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/paygate"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

// PaymentGateway creates hosted payment sessions
type PaymentGateway interface {
	Configured() bool
	CreateSession(ctx context.Context, req paygate.SessionRequest) (*paygate.SessionResponse, error)
}

type PaymentService struct {
	gateway        PaymentGateway
	repos          *repository.Repositories
	returnBaseURL  string
	webhookBaseURL string
	timeout        time.Duration
	logger         *zap.Logger
}

// NewPaymentService creates a new payment session service
func NewPaymentService(cfg config.PaymentConfig, gateway PaymentGateway, repos *repository.Repositories, logger *zap.Logger) *PaymentService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaymentService{
		gateway:        gateway,
		repos:          repos,
		returnBaseURL:  strings.TrimSuffix(cfg.ReturnBaseURL, "/"),
		webhookBaseURL: strings.TrimSuffix(cfg.WebhookBaseURL, "/"),
		timeout:        timeout,
		logger:         logger,
	}
}

// InitiateSession builds a provider payment page for an online-transfer order
func (s *PaymentService) InitiateSession(ctx context.Context, req PaymentSessionRequest) (*PaymentSessionResult, error) {
	orderCode := NormalizeOrderCode(req.OrderCode)
	orderIDStr := strings.TrimSpace(req.OrderID)
	if req.Amount == nil || orderCode == "" || orderIDStr == "" {
		return nil, &pkgerrors.ErrBadRequest{Message: "amount, orderCode and orderId are required"}
	}

	if !s.gateway.Configured() {
		s.logger.Error("Payment API key is not configured")
		return nil, &pkgerrors.ErrConfiguration{Key: "PAYMENT_API_KEY"}
	}

	amount := req.Amount.Round(0).IntPart()
	if amount <= 0 {
		return nil, &pkgerrors.ErrBadRequest{Message: "amount must be positive"}
	}

	orderID, err := uuid.Parse(orderIDStr)
	if err != nil {
		return nil, &pkgerrors.ErrBadRequest{Message: "invalid orderId"}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		var nf *pkgerrors.ErrNotFound
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, &pkgerrors.ErrStore{Op: "get order", Err: err}
	}

	switch {
	case NormalizeOrderCode(order.OrderNumber) != orderCode:
		return nil, &pkgerrors.ErrBadRequest{Message: "orderCode does not belong to orderId"}
	case !order.PaymentMethod.RequiresGateway():
		return nil, &pkgerrors.ErrBadRequest{Message: "order is not paid online"}
	case order.IsPaid():
		return nil, &pkgerrors.ErrBadRequest{Message: "order is already paid"}
	case order.FinalAmount != amount:
		s.logger.Warn("Payment session amount differs from order",
			zap.String("order_number", order.OrderNumber),
			zap.Int64("requested", amount),
			zap.Int64("final_amount", order.FinalAmount),
		)
		return nil, &pkgerrors.ErrBadRequest{Message: "amount does not match order"}
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("Thanh toan %s", order.OrderNumber)
	}

	sessionReq := paygate.SessionRequest{
		OrderCode:   order.OrderNumber,
		Amount:      amount,
		Description: description,
		ReturnURL:   s.returnURL(order.OrderNumber, order.ID, ""),
		CancelURL:   s.returnURL(order.OrderNumber, order.ID, "cancelled"),
		WebhookURL:  s.webhookBaseURL + "/payment/webhook",
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.gateway.CreateSession(gatewayCtx, sessionReq)
	if err != nil {
		var gwErr *pkgerrors.ErrPaymentGateway
		var cfgErr *pkgerrors.ErrConfiguration
		if errors.As(err, &gwErr) || errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &pkgerrors.ErrPaymentGateway{Message: "failed to create payment session", Err: err}
	}

	s.logger.Info("Payment session created",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("amount", amount),
		zap.String("transaction_id", resp.TransactionID),
	)

	return &PaymentSessionResult{
		URL:           resp.CheckoutURL,
		TransactionID: resp.TransactionID,
	}, nil
}

func (s *PaymentService) returnURL(orderCode string, orderID uuid.UUID, status string) string {
	q := url.Values{}
	q.Set("orderCode", orderCode)
	q.Set("orderId", orderID.String())
	if status != "" {
		q.Set("status", status)
	}
	return s.returnBaseURL + "/payment/return?" + q.Encode()
}
