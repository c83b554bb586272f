package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/events"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/paygate"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository/memory"
)

var errStoreDown = errors.New("connection refused")

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	Unconfigured bool
	Response     *paygate.SessionResponse
	Err          error
	Requests     []paygate.SessionRequest
}

func (m *MockGateway) Configured() bool {
	return !m.Unconfigured
}

func (m *MockGateway) CreateSession(_ context.Context, req paygate.SessionRequest) (*paygate.SessionResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// FailingItemRepository rejects every batch insert
type FailingItemRepository struct{}

func (FailingItemRepository) CreateBatch(context.Context, []*domain.OrderItem) error {
	return errStoreDown
}

func (FailingItemRepository) GetByOrderID(context.Context, uuid.UUID) ([]*domain.OrderItem, error) {
	return nil, errStoreDown
}

// BrokenMarkPaidRepository fails the paid transition but serves reads
type BrokenMarkPaidRepository struct {
	*memory.Store
}

func (BrokenMarkPaidRepository) MarkPaid(context.Context, uuid.UUID, *string, time.Time) (bool, error) {
	return false, errStoreDown
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []events.PaymentEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, event events.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

func (p *RecordingPublisher) CountOf(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.Events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// FailingLocker never grants a lock
type FailingLocker struct{}

func (FailingLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("redis unavailable")
}

func fixedCodes(codes ...string) CodeGenerator {
	i := 0
	return func() string {
		code := codes[i%len(codes)]
		i++
		return code
	}
}

func newTestOrderRequest(method string, price int64, quantity int) CreateOrderRequest {
	total := price * int64(quantity)
	email := "khach@example.com"
	return CreateOrderRequest{
		Items: []CartItem{
			{ProductID: uuid.New(), Quantity: quantity, Price: price},
		},
		TotalAmount:    total,
		ShippingFee:    0,
		DiscountAmount: 0,
		FinalAmount:    total,
		Shipping: ShippingInfo{
			FullName: "Nguyen Van A",
			Email:    &email,
			Phone:    "0901234567",
			Address:  "12 Le Loi",
			City:     "Ho Chi Minh",
			District: "Quan 1",
			Ward:     "Ben Nghe",
		},
		PaymentMethod: method,
	}
}

// seedOrder stores an order directly, bypassing the order service
func seedOrder(store *memory.Store, number string, method domain.PaymentMethod, total int64) *domain.Order {
	order := &domain.Order{
		UserID:        uuid.New(),
		OrderNumber:   number,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: method,
		TotalAmount:   total,
		FinalAmount:   total,
		FullName:      "Tran Thi B",
		Phone:         "0912345678",
		Address:       "1 Nguyen Hue",
		City:          "Ho Chi Minh",
		District:      "Quan 1",
		Ward:          "Ben Nghe",
	}
	if err := store.Create(context.Background(), order); err != nil {
		panic(err)
	}
	return order
}

func newWebhookService(store *memory.Store, publisher *RecordingPublisher) *WebhookService {
	return NewWebhookService(store.Repositories(), nil, publisher, zap.NewNop())
}

func reposWith(store *memory.Store, items repository.OrderItemRepository) *repository.Repositories {
	repos := store.Repositories()
	repos.OrderItem = items
	return repos
}

func decimalOf(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string { return &s }

// ContextAwareOrderRepository fails deletes on a done context, as database/sql does
type ContextAwareOrderRepository struct {
	*memory.Store
}

func (r ContextAwareOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Store.Delete(ctx, id)
}

// CancellingItemRepository cancels the request and then fails the insert
type CancellingItemRepository struct {
	cancel context.CancelFunc
}

func (r CancellingItemRepository) CreateBatch(ctx context.Context, _ []*domain.OrderItem) error {
	r.cancel()
	return ctx.Err()
}

func (CancellingItemRepository) GetByOrderID(context.Context, uuid.UUID) ([]*domain.OrderItem, error) {
	return nil, nil
}

// TrackingLocker records whether its single lock is currently held
type TrackingLocker struct {
	mu   sync.Mutex
	held bool
}

func (l *TrackingLocker) Lock(context.Context, string) (func(), error) {
	l.mu.Lock()
	l.held = true
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
	}, nil
}

func (l *TrackingLocker) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// ObservingPublisher notes the lock state and context of every publish
type ObservingPublisher struct {
	RecordingPublisher
	locker            *TrackingLocker
	PublishedLocked   bool
	PublishedCanceled bool
}

func (p *ObservingPublisher) Publish(ctx context.Context, event events.PaymentEvent) error {
	if p.locker.Held() {
		p.PublishedLocked = true
	}
	if ctx.Err() != nil {
		p.PublishedCanceled = true
	}
	return p.RecordingPublisher.Publish(ctx, event)
}
