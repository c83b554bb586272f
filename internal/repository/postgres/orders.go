package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

const (
	uniqueViolation       = "23505"
	orderNumberConstraint = "orders_order_number_key"
)

const orderColumns = `
	id, user_id, order_number, status, payment_status, payment_method,
	total_amount, shipping_fee, discount_amount, final_amount,
	full_name, email, phone, address, city, district, ward, note,
	transaction_id, created_at, updated_at
`

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var email, note, transactionID sql.NullString

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.TotalAmount,
		&order.ShippingFee,
		&order.DiscountAmount,
		&order.FinalAmount,
		&order.FullName,
		&email,
		&order.Phone,
		&order.Address,
		&order.City,
		&order.District,
		&order.Ward,
		&note,
		&transactionID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if !order.Status.IsValid() || !order.PaymentStatus.IsValid() {
		return nil, fmt.Errorf("order %s has unknown status %q/%q", order.OrderNumber, order.Status, order.PaymentStatus)
	}

	if email.Valid {
		order.Email = &email.String
	}
	if note.Valid {
		order.Note = &note.String
	}
	if transactionID.Valid {
		order.TransactionID = &transactionID.String
	}

	return &order, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

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

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.OrderNumber,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		order.TotalAmount,
		order.ShippingFee,
		order.DiscountAmount,
		order.FinalAmount,
		order.FullName,
		order.Email,
		order.Phone,
		order.Address,
		order.City,
		order.District,
		order.Ward,
		order.Note,
		order.TransactionID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == orderNumberConstraint {
			return repository.ErrDuplicateOrderNumber
		}
		r.logger.Error("Failed to create order", zap.Error(err))
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &pkgerrors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	if err != nil {
		r.logger.Error("Failed to get order by number", zap.Error(err))
		return nil, fmt.Errorf("query order by number: %w", err)
	}

	return order, nil
}

func (r *orderRepository) FindByNormalizedNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE UPPER(TRIM(order_number)) = UPPER(TRIM($1))
		ORDER BY created_at DESC
		LIMIT 1
	`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	if err != nil {
		r.logger.Error("Failed to find order by normalized number", zap.Error(err))
		return nil, fmt.Errorf("query order by normalized number: %w", err)
	}

	return order, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, transactionID *string, at time.Time) (bool, error) {
	// The payment_status predicate makes concurrent duplicate deliveries race-free.
	// Only a pending order advances to processing; later statuses are kept.
	query := `
		UPDATE orders
		SET payment_status = $2,
		    status = CASE WHEN status = $6 THEN $3 ELSE status END,
		    transaction_id = COALESCE($4, transaction_id),
		    updated_at = $5
		WHERE id = $1 AND payment_status <> $2
	`

	res, err := r.db.ExecContext(ctx, query,
		id,
		domain.PaymentStatusPaid,
		domain.OrderStatusProcessing,
		transactionID,
		at,
		domain.OrderStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark order paid", zap.String("order_id", id.String()), zap.Error(err))
		return false, fmt.Errorf("mark order paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark order paid rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete order", zap.String("order_id", id.String()), zap.Error(err))
		return fmt.Errorf("delete order: %w", err)
	}

	return nil
}
