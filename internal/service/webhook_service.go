package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/events"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/lock"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

const publishTimeout = 3 * time.Second

type WebhookService struct {
	repos     *repository.Repositories
	locker    lock.Locker
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewWebhookService creates the payment notification reconciler
func NewWebhookService(repos *repository.Repositories, locker lock.Locker, publisher events.Publisher, logger *zap.Logger) *WebhookService {
	if locker == nil {
		locker = lock.NopLocker{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &WebhookService{
		repos:     repos,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// IsSuccessStatus reports whether a provider status means the money arrived
func IsSuccessStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "paid", "completed", "00":
		return true
	default:
		return false
	}
}

// Reconcile applies one provider notification to the stored order.
// Delivery is at-least-once, so a repeated success is a no-op.
func (s *WebhookService) Reconcile(ctx context.Context, event domain.PaymentWebhookEvent) (*WebhookResult, error) {
	code := NormalizeOrderCode(event.OrderCode)
	if code == "" {
		code = ExtractOrderCode(event.Content)
	}
	if code == "" {
		return nil, &pkgerrors.ErrBadRequest{Message: "order code missing"}
	}
	if strings.TrimSpace(event.Status) == "" {
		return nil, &pkgerrors.ErrBadRequest{Message: "status missing"}
	}

	if !IsSuccessStatus(event.Status) {
		s.logger.Info("Payment notification acknowledged without change",
			zap.String("order_code", code),
			zap.String("status", event.Status),
		)
		return &WebhookResult{Outcome: OutcomeAcknowledged, OrderNumber: code}, nil
	}

	result, pending, err := s.applySuccess(ctx, code, event)
	s.publishAll(ctx, pending)
	return result, err
}

// applySuccess records the payment under the order lock and returns the events
// to publish once the lock is released.
func (s *WebhookService) applySuccess(ctx context.Context, code string, event domain.PaymentWebhookEvent) (*WebhookResult, []events.PaymentEvent, error) {
	unlock, err := s.locker.Lock(ctx, code)
	if err != nil {
		// The conditional update below is still race-free without the lock.
		s.logger.Warn("Proceeding without order lock", zap.String("order_code", code), zap.Error(err))
	} else {
		defer unlock()
	}

	order, err := s.repos.Order.FindByNormalizedNumber(ctx, code)
	if err != nil {
		var nf *pkgerrors.ErrNotFound
		if errors.As(err, &nf) {
			s.logger.Error("Payment success for unknown order, needs manual investigation",
				zap.String("order_code", code),
				zap.Stringp("transaction_id", event.TransactionID),
			)
			return nil, nil, err
		}
		return nil, nil, &pkgerrors.ErrStore{Op: "find order", Err: err}
	}

	result := &WebhookResult{OrderNumber: order.OrderNumber}

	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusPaid) {
		s.logger.Info("Order already paid, ignoring duplicate notification",
			zap.String("order_number", order.OrderNumber),
		)
		result.Outcome = OutcomeAlreadyProcessed
		return result, nil, nil
	}

	base := events.PaymentEvent{
		OrderID:        order.ID.String(),
		OrderNumber:    order.OrderNumber,
		OrderStatus:    string(order.Status),
		TransactionID:  derefString(event.TransactionID),
		ExpectedAmount: order.TotalAmount,
		ReceivedAmount: event.Amount,
		OccurredAt:     s.now(),
	}
	var pending []events.PaymentEvent

	if event.Amount != nil && !event.Amount.Equal(decimal.NewFromInt(order.TotalAmount)) {
		result.AmountMismatch = true
		s.logger.Warn("Payment amount mismatch, flagged for review",
			zap.String("order_number", order.OrderNumber),
			zap.Int64("expected", order.TotalAmount),
			zap.String("received", event.Amount.String()),
		)
		pending = append(pending, withType(base, events.TypePaymentAmountMismatch))
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusProcessing) {
		// Payment is still recorded; fulfillment status stays where it is.
		s.logger.Warn("Order status does not advance on payment",
			zap.String("order_number", order.OrderNumber),
			zap.Error(&pkgerrors.ErrInvalidStateTransition{From: order.Status, To: domain.OrderStatusProcessing}),
		)
	}
	if order.Status == domain.OrderStatusCancelled {
		result.NeedsReview = true
		pending = append(pending, withType(base, events.TypePaymentNeedsReview))
	}

	updated, err := s.repos.Order.MarkPaid(ctx, order.ID, event.TransactionID, s.now())
	if err != nil {
		return nil, nil, &pkgerrors.ErrStore{Op: "mark order paid", Err: err}
	}
	if !updated {
		// A concurrent delivery won the race and publishes the events.
		result.Outcome = OutcomeAlreadyProcessed
		result.AmountMismatch = false
		result.NeedsReview = false
		return result, nil, nil
	}

	s.logger.Info("Order marked paid",
		zap.String("order_number", order.OrderNumber),
		zap.Stringp("transaction_id", event.TransactionID),
	)
	pending = append(pending, withType(base, events.TypeOrderPaid))

	result.Outcome = OutcomeProcessed
	return result, pending, nil
}

// publishAll runs detached from the request so a client timeout does not drop
// events for a payment that was already recorded.
func (s *WebhookService) publishAll(ctx context.Context, pending []events.PaymentEvent) {
	if len(pending) == 0 {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, event := range pending {
		s.publish(pubCtx, event)
	}
}

func withType(event events.PaymentEvent, eventType string) events.PaymentEvent {
	event.Type = eventType
	return event
}

func (s *WebhookService) publish(ctx context.Context, event events.PaymentEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish payment event",
			zap.String("type", event.Type),
			zap.String("order_number", event.OrderNumber),
			zap.Error(err),
		)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
