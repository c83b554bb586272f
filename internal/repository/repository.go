package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
)

var (
	// ErrDuplicateOrderNumber is returned when an order_number is already taken
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

// OrderRepository persists order headers
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	// FindByNormalizedNumber matches order_number ignoring case and surrounding whitespace.
	FindByNormalizedNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	// MarkPaid moves the order to paid/processing unless it is already paid.
	// It reports false when the order was already paid and nothing changed.
	MarkPaid(ctx context.Context, id uuid.UUID, transactionID *string, at time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderItemRepository persists order lines
type OrderItemRepository interface {
	// CreateBatch inserts all items or none of them.
	CreateBatch(ctx context.Context, items []*domain.OrderItem) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error)
}

// ProductRepository reads the catalog
type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
}

// SessionStore resolves bearer tokens issued by the auth provider
type SessionStore interface {
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}

// Repositories groups the stores used by the services
type Repositories struct {
	Order     OrderRepository
	OrderItem OrderItemRepository
	Product   ProductRepository
}
