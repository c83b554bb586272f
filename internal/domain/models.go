package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a customer purchase
type Order struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	OrderNumber    string        `json:"order_number"`
	Status         OrderStatus   `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	TotalAmount    int64         `json:"total_amount"`
	ShippingFee    int64         `json:"shipping_fee"`
	DiscountAmount int64         `json:"discount_amount"`
	FinalAmount    int64         `json:"final_amount"`
	FullName       string        `json:"full_name"`
	Email          *string       `json:"email,omitempty"`
	Phone          string        `json:"phone"`
	Address        string        `json:"address"`
	City           string        `json:"city"`
	District       string        `json:"district"`
	Ward           string        `json:"ward"`
	Note           *string       `json:"note,omitempty"`
	TransactionID  *string       `json:"transaction_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsPaid reports whether the payment has been confirmed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OrderItem represents one purchased line of an order
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	Subtotal  int64     `json:"subtotal"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is the catalog entry consulted when verifying submitted prices
type Product struct {
	ID       uuid.UUID
	Name     string
	Price    int64
	IsActive bool
}

// PaymentWebhookEvent is one inbound provider notification. It is never stored.
// Amount keeps the provider's precision so fractional mismatches are visible.
type PaymentWebhookEvent struct {
	OrderCode     string
	Status        string
	Amount        *decimal.Decimal
	TransactionID *string
	Content       string
}
