// Package memory keeps orders in process memory. It backs the server when no
// database is configured and doubles as a store for service tests.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

// Store implements the order, order item and product repositories
type Store struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]domain.Order
	items    map[uuid.UUID][]domain.OrderItem
	products map[uuid.UUID]domain.Product
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		orders:   make(map[uuid.UUID]domain.Order),
		items:    make(map[uuid.UUID][]domain.OrderItem),
		products: make(map[uuid.UUID]domain.Product),
	}
}

// Repositories exposes the store through the repository aggregate
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Order:     s,
		OrderItem: s,
		Product:   s,
	}
}

// PutProduct adds or replaces a catalog entry
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.OrderNumber == order.OrderNumber {
			return repository.ErrDuplicateOrderNumber
		}
	}

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	s.orders[order.ID] = *order
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, &pkgerrors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return &order, nil
}

func (s *Store) GetByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if order.OrderNumber == orderNumber {
			o := order
			return &o, nil
		}
	}
	return nil, &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
}

func (s *Store) FindByNormalizedNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := strings.ToUpper(strings.TrimSpace(orderNumber))
	for _, order := range s.orders {
		if strings.ToUpper(strings.TrimSpace(order.OrderNumber)) == want {
			o := order
			return &o, nil
		}
	}
	return nil, &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
}

func (s *Store) MarkPaid(_ context.Context, id uuid.UUID, transactionID *string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return false, &pkgerrors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusPaid) {
		return false, nil
	}

	order.PaymentStatus = domain.PaymentStatusPaid
	if order.Status.CanTransitionTo(domain.OrderStatusProcessing) {
		order.Status = domain.OrderStatusProcessing
	}
	if transactionID != nil {
		tx := *transactionID
		order.TransactionID = &tx
	}
	order.UpdatedAt = at
	s.orders[id] = order
	return true, nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.orders, id)
	delete(s.items, id)
	return nil
}

func (s *Store) CreateBatch(_ context.Context, items []*domain.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, ok := s.orders[item.OrderID]; !ok {
			return errors.New("order item references unknown order")
		}
	}

	now := time.Now()
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		s.items[item.OrderID] = append(s.items[item.OrderID], *item)
	}
	return nil
}

func (s *Store) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.items[orderID]
	items := make([]*domain.OrderItem, len(stored))
	for i := range stored {
		item := stored[i]
		items[i] = &item
	}
	return items, nil
}

func (s *Store) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			product := p
			products[id] = &product
		}
	}
	return products, nil
}
