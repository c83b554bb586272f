package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

const (
	maxOrderNumberAttempts = 3
	compensationTimeout    = 5 * time.Second
)

type OrderService struct {
	repos        *repository.Repositories
	logger       *zap.Logger
	codes        CodeGenerator
	verifyPrices bool
}

// OrderOption customizes an OrderService
type OrderOption func(*OrderService)

// WithCodeGenerator replaces the random order number generator
func WithCodeGenerator(gen CodeGenerator) OrderOption {
	return func(s *OrderService) {
		s.codes = gen
	}
}

// WithPriceVerification makes the service re-derive unit prices from the catalog
func WithPriceVerification(enabled bool) OrderOption {
	return func(s *OrderService) {
		s.verifyPrices = enabled
	}
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, logger *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		repos:  repos,
		logger: logger,
		codes:  RandomOrderCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder persists an order and its items for userID.
// If the items cannot be stored the order is deleted again.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error) {
	if userID == uuid.Nil {
		return nil, &pkgerrors.ErrUnauthorized{Message: "login required"}
	}

	method, err := validateOrderRequest(req)
	if err != nil {
		return nil, err
	}

	if s.verifyPrices {
		if err := s.verifyCatalogPrices(ctx, req); err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		UserID:         userID,
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		PaymentMethod:  method,
		TotalAmount:    req.TotalAmount,
		ShippingFee:    req.ShippingFee,
		DiscountAmount: req.DiscountAmount,
		FinalAmount:    req.FinalAmount,
		FullName:       req.Shipping.FullName,
		Email:          req.Shipping.Email,
		Phone:          req.Shipping.Phone,
		Address:        req.Shipping.Address,
		City:           req.Shipping.City,
		District:       req.Shipping.District,
		Ward:           req.Shipping.Ward,
		Note:           req.Shipping.Note,
	}

	if err := s.insertWithFreshNumber(ctx, order); err != nil {
		return nil, err
	}

	items := make([]*domain.OrderItem, 0, len(req.Items))
	for _, cartItem := range req.Items {
		items = append(items, &domain.OrderItem{
			OrderID:   order.ID,
			ProductID: cartItem.ProductID,
			Quantity:  cartItem.Quantity,
			Price:     cartItem.Price,
			Subtotal:  cartItem.Price * int64(cartItem.Quantity),
		})
	}

	if err := s.repos.OrderItem.CreateBatch(ctx, items); err != nil {
		s.logger.Error("Failed to create order items, removing order",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		if delErr := s.deleteOrphan(ctx, order); delErr != nil {
			s.logger.Error("Compensating order delete failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(delErr),
			)
		}
		return nil, &pkgerrors.ErrStore{Op: "create order items", Err: err}
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Int("items", len(items)),
	)

	return &CreateOrderResult{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
	}, nil
}

// deleteOrphan removes an order whose items failed to store. It runs detached
// from ctx because the item insert may have failed on a cancelled request.
func (s *OrderService) deleteOrphan(ctx context.Context, order *domain.Order) error {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	return s.repos.Order.Delete(cleanupCtx, order.ID)
}

// insertWithFreshNumber retries with a new code when the store reports a clash.
func (s *OrderService) insertWithFreshNumber(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = s.codes()
		err = s.repos.Order.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return &pkgerrors.ErrStore{Op: "create order", Err: err}
		}
		s.logger.Warn("Order number collision",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt),
		)
	}
	return &pkgerrors.ErrStore{Op: "allocate order number", Err: err}
}

// GetOrder returns an order and its items if it belongs to userID
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, []*domain.OrderItem, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		var nf *pkgerrors.ErrNotFound
		if errors.As(err, &nf) {
			return nil, nil, err
		}
		return nil, nil, &pkgerrors.ErrStore{Op: "get order", Err: err}
	}

	if order.UserID != userID {
		return nil, nil, &pkgerrors.ErrForbidden{Resource: "order"}
	}

	items, err := s.repos.OrderItem.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, &pkgerrors.ErrStore{Op: "get order items", Err: err}
	}

	return order, items, nil
}

func validateOrderRequest(req CreateOrderRequest) (domain.PaymentMethod, error) {
	if len(req.Items) == 0 {
		return "", &pkgerrors.ErrBadRequest{Message: "cart is empty"}
	}
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return "", &pkgerrors.ErrBadRequest{Message: fmt.Sprintf("item %d: product_id is required", i)}
		}
		if item.Quantity <= 0 {
			return "", &pkgerrors.ErrBadRequest{Message: fmt.Sprintf("item %d: quantity must be positive", i)}
		}
		if item.Price < 0 {
			return "", &pkgerrors.ErrBadRequest{Message: fmt.Sprintf("item %d: price must not be negative", i)}
		}
	}

	if req.TotalAmount < 0 || req.ShippingFee < 0 || req.DiscountAmount < 0 || req.FinalAmount < 0 {
		return "", &pkgerrors.ErrBadRequest{Message: "amounts must not be negative"}
	}
	if req.FinalAmount != req.TotalAmount+req.ShippingFee-req.DiscountAmount {
		return "", &pkgerrors.ErrBadRequest{Message: "final_amount does not match total_amount + shipping_fee - discount_amount"}
	}

	sh := req.Shipping
	required := []struct{ field, value string }{
		{"full_name", sh.FullName},
		{"phone", sh.Phone},
		{"address", sh.Address},
		{"city", sh.City},
		{"district", sh.District},
		{"ward", sh.Ward},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return "", &pkgerrors.ErrBadRequest{Message: r.field + " is required"}
		}
	}

	method, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return "", &pkgerrors.ErrBadRequest{Message: fmt.Sprintf("unsupported payment_method %q", req.PaymentMethod)}
	}

	return method, nil
}

// verifyCatalogPrices rejects carts whose prices or total diverge from the catalog.
func (s *OrderService) verifyCatalogPrices(ctx context.Context, req CreateOrderRequest) error {
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.repos.Product.GetByIDs(ctx, ids)
	if err != nil {
		return &pkgerrors.ErrStore{Op: "load catalog prices", Err: err}
	}

	var sum int64
	for _, item := range req.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			return &pkgerrors.ErrBadRequest{Message: fmt.Sprintf("product %s is not available", item.ProductID)}
		}
		if product.Price != item.Price {
			s.logger.Warn("Submitted price differs from catalog",
				zap.String("product_id", item.ProductID.String()),
				zap.Int64("submitted", item.Price),
				zap.Int64("catalog", product.Price),
			)
			return &pkgerrors.ErrBadRequest{Message: fmt.Sprintf("price for product %s has changed", item.ProductID)}
		}
		sum += product.Price * int64(item.Quantity)
	}

	if sum != req.TotalAmount {
		return &pkgerrors.ErrBadRequest{Message: "total_amount does not match cart"}
	}
	return nil
}
