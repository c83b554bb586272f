package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/paygate"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository/memory"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

var testPaymentConfig = config.PaymentConfig{
	APIKey:         "pk_test",
	Endpoint:       "https://pay.example.com",
	ReturnBaseURL:  "https://shop.example.com/",
	WebhookBaseURL: "https://api.example.com",
}

func amountOf(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestInitiateSession_Success(t *testing.T) {
	store := memory.NewStore()
	order := seedOrder(store, "HTX12345", domain.PaymentMethodOnlineTransfer, 5000000)
	gateway := &MockGateway{Response: &paygate.SessionResponse{
		CheckoutURL:   "https://pay.example.com/web/abc",
		TransactionID: "PL-778",
	}}
	svc := NewPaymentService(testPaymentConfig, gateway, store.Repositories(), zap.NewNop())

	result, err := svc.InitiateSession(context.Background(), PaymentSessionRequest{
		Amount:      amountOf("5000000.4"),
		OrderCode:   " htx12345",
		Description: "Don hang HTX12345",
		OrderID:     order.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/web/abc", result.URL)
	assert.Equal(t, "PL-778", result.TransactionID)

	require.Len(t, gateway.Requests, 1)
	sent := gateway.Requests[0]
	assert.Equal(t, int64(5000000), sent.Amount)
	assert.Equal(t, "HTX12345", sent.OrderCode)
	assert.Equal(t, "Don hang HTX12345", sent.Description)
	assert.Equal(t, "https://api.example.com/payment/webhook", sent.WebhookURL)

	returnURL, err := url.Parse(sent.ReturnURL)
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", returnURL.Host)
	assert.Equal(t, "/payment/return", returnURL.Path)
	assert.Equal(t, "HTX12345", returnURL.Query().Get("orderCode"))
	assert.Equal(t, order.ID.String(), returnURL.Query().Get("orderId"))

	cancelURL, err := url.Parse(sent.CancelURL)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelURL.Query().Get("status"))
}

func TestInitiateSession_RoundsHalfUp(t *testing.T) {
	store := memory.NewStore()
	order := seedOrder(store, "HTX12346", domain.PaymentMethodOnlineTransfer, 100)
	gateway := &MockGateway{Response: &paygate.SessionResponse{CheckoutURL: "https://pay.example.com/x"}}
	svc := NewPaymentService(testPaymentConfig, gateway, store.Repositories(), zap.NewNop())

	_, err := svc.InitiateSession(context.Background(), PaymentSessionRequest{
		Amount:    amountOf("99.5"),
		OrderCode: "HTX12346",
		OrderID:   order.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), gateway.Requests[0].Amount)
	assert.Equal(t, "Thanh toan HTX12346", gateway.Requests[0].Description)
}

func TestInitiateSession_MissingFields(t *testing.T) {
	orderID := uuid.New().String()
	tests := []struct {
		name string
		req  PaymentSessionRequest
	}{
		{"missing amount", PaymentSessionRequest{OrderCode: "HTX12345", OrderID: orderID}},
		{"missing order code", PaymentSessionRequest{Amount: amountOf("1000"), OrderID: orderID}},
		{"missing order id", PaymentSessionRequest{Amount: amountOf("1000"), OrderCode: "HTX12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &MockGateway{}
			svc := NewPaymentService(testPaymentConfig, gateway, memory.NewStore().Repositories(), zap.NewNop())

			_, err := svc.InitiateSession(context.Background(), tt.req)

			var badRequest *pkgerrors.ErrBadRequest
			assert.ErrorAs(t, err, &badRequest)
			assert.Empty(t, gateway.Requests)
		})
	}
}

func TestInitiateSession_MissingAPIKey(t *testing.T) {
	store := memory.NewStore()
	order := seedOrder(store, "HTX12345", domain.PaymentMethodOnlineTransfer, 1000)
	gateway := &MockGateway{Unconfigured: true}
	svc := NewPaymentService(testPaymentConfig, gateway, store.Repositories(), zap.NewNop())

	_, err := svc.InitiateSession(context.Background(), PaymentSessionRequest{
		Amount:    amountOf("1000"),
		OrderCode: "HTX12345",
		OrderID:   order.ID.String(),
	})

	var cfgErr *pkgerrors.ErrConfiguration
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "PAYMENT_API_KEY", cfgErr.Key)
	assert.Empty(t, gateway.Requests)
}

func TestInitiateSession_RejectsMismatchedOrders(t *testing.T) {
	store := memory.NewStore()
	online := seedOrder(store, "HTX10001", domain.PaymentMethodOnlineTransfer, 1000)
	cod := seedOrder(store, "HTX10002", domain.PaymentMethodCOD, 1000)
	paid := seedOrder(store, "HTX10003", domain.PaymentMethodOnlineTransfer, 1000)
	_, err := store.MarkPaid(context.Background(), paid.ID, nil, paid.CreatedAt)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  PaymentSessionRequest
	}{
		{"code of another order", PaymentSessionRequest{Amount: amountOf("1000"), OrderCode: "HTX99999", OrderID: online.ID.String()}},
		{"cash on delivery", PaymentSessionRequest{Amount: amountOf("1000"), OrderCode: "HTX10002", OrderID: cod.ID.String()}},
		{"already paid", PaymentSessionRequest{Amount: amountOf("1000"), OrderCode: "HTX10003", OrderID: paid.ID.String()}},
		{"wrong amount", PaymentSessionRequest{Amount: amountOf("10"), OrderCode: "HTX10001", OrderID: online.ID.String()}},
		{"malformed order id", PaymentSessionRequest{Amount: amountOf("1000"), OrderCode: "HTX10001", OrderID: "42"}},
		{"zero amount", PaymentSessionRequest{Amount: amountOf("0.2"), OrderCode: "HTX10001", OrderID: online.ID.String()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &MockGateway{Response: &paygate.SessionResponse{CheckoutURL: "https://pay.example.com/x"}}
			svc := NewPaymentService(testPaymentConfig, gateway, store.Repositories(), zap.NewNop())

			_, err := svc.InitiateSession(context.Background(), tt.req)

			var badRequest *pkgerrors.ErrBadRequest
			assert.ErrorAs(t, err, &badRequest)
			assert.Empty(t, gateway.Requests)
		})
	}
}

func TestInitiateSession_OrderNotFound(t *testing.T) {
	gateway := &MockGateway{}
	svc := NewPaymentService(testPaymentConfig, gateway, memory.NewStore().Repositories(), zap.NewNop())

	_, err := svc.InitiateSession(context.Background(), PaymentSessionRequest{
		Amount:    amountOf("1000"),
		OrderCode: "HTX12345",
		OrderID:   uuid.New().String(),
	})

	var notFound *pkgerrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestInitiateSession_GatewayError(t *testing.T) {
	store := memory.NewStore()
	order := seedOrder(store, "HTX12345", domain.PaymentMethodOnlineTransfer, 1000)
	gateway := &MockGateway{Err: &pkgerrors.ErrPaymentGateway{StatusCode: 400, Message: "orderCode already used"}}
	svc := NewPaymentService(testPaymentConfig, gateway, store.Repositories(), zap.NewNop())

	_, err := svc.InitiateSession(context.Background(), PaymentSessionRequest{
		Amount:    amountOf("1000"),
		OrderCode: "HTX12345",
		OrderID:   order.ID.String(),
	})

	var gwErr *pkgerrors.ErrPaymentGateway
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "orderCode already used", gwErr.Message)
}

func TestInitiateSession_UntypedGatewayErrorIsWrapped(t *testing.T) {
	store := memory.NewStore()
	order := seedOrder(store, "HTX12345", domain.PaymentMethodOnlineTransfer, 1000)
	gateway := &MockGateway{Err: context.DeadlineExceeded}
	svc := NewPaymentService(testPaymentConfig, gateway, store.Repositories(), zap.NewNop())

	_, err := svc.InitiateSession(context.Background(), PaymentSessionRequest{
		Amount:    amountOf("1000"),
		OrderCode: "HTX12345",
		OrderID:   order.ID.String(),
	})

	var gwErr *pkgerrors.ErrPaymentGateway
	require.ErrorAs(t, err, &gwErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, stored.PaymentStatus)
}
