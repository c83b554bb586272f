package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

const sessionPath = "/v2/payment-requests"

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*SessionResponse]
	logger     *zap.Logger
}

// NewClient creates a new payment provider client
func NewClient(cfg config.PaymentConfig, logger *zap.Logger) *Client {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*SessionResponse](gobreaker.Settings{
		Name:        "paygate",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejections of our own payload say nothing about provider health.
		IsSuccessful: func(err error) bool {
			var gwErr *pkgerrors.ErrPaymentGateway
			if errors.As(err, &gwErr) {
				return gwErr.StatusCode >= 400 && gwErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Payment gateway circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
		logger:  logger,
	}
}

// Configured reports whether an API key is available
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CreateSession asks the provider for a hosted payment page
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	if !c.Configured() {
		return nil, &pkgerrors.ErrConfiguration{Key: "PAYMENT_API_KEY"}
	}

	resp, err := c.breaker.Execute(func() (*SessionResponse, error) {
		return c.createSession(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &pkgerrors.ErrPaymentGateway{
			Message: "payment provider temporarily unavailable",
			Err:     err,
		}
	}
	return resp, err
}

func (c *Client) createSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+sessionPath, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Payment provider request failed",
			zap.String("order_code", req.OrderCode),
			zap.Error(err),
		)
		return nil, &pkgerrors.ErrPaymentGateway{Message: "payment provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pkgerrors.ErrPaymentGateway{Message: "failed to read provider response", Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.message()
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Error("Payment provider rejected session",
			zap.String("order_code", req.OrderCode),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, &pkgerrors.ErrPaymentGateway{StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return nil, &pkgerrors.ErrPaymentGateway{
			StatusCode: resp.StatusCode,
			Message:    "unreadable provider response",
			Err:        decodeErr,
		}
	}

	// Some providers answer flat, without a data wrapper.
	var flat sessionData
	_ = json.Unmarshal(body, &flat)

	checkoutURL := firstNonEmpty(env.Data.checkoutURL(), flat.checkoutURL())
	if checkoutURL == "" {
		msg := env.message()
		if msg == "" {
			msg = "response did not contain a payment URL"
		}
		return nil, &pkgerrors.ErrPaymentGateway{StatusCode: resp.StatusCode, Message: msg}
	}

	return &SessionResponse{
		CheckoutURL:   checkoutURL,
		TransactionID: firstNonEmpty(env.Data.transactionID(), flat.transactionID()),
	}, nil
}
