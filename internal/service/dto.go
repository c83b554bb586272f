package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
)

// CreateOrderRequest represents the checkout payload
type CreateOrderRequest struct {
	Items          []CartItem   `json:"items" binding:"required,min=1,dive"`
	TotalAmount    int64        `json:"total_amount" binding:"min=0"`
	ShippingFee    int64        `json:"shipping_fee" binding:"min=0"`
	DiscountAmount int64        `json:"discount_amount" binding:"min=0"`
	FinalAmount    int64        `json:"final_amount" binding:"min=0"`
	Shipping       ShippingInfo `json:"shipping_info" binding:"required"`
	PaymentMethod  string       `json:"payment_method" binding:"required"`
}

type CartItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	Price     int64     `json:"price" binding:"min=0"`
}

type ShippingInfo struct {
	FullName string  `json:"full_name" binding:"required"`
	Email    *string `json:"email,omitempty"`
	Phone    string  `json:"phone" binding:"required"`
	Address  string  `json:"address" binding:"required"`
	City     string  `json:"city" binding:"required"`
	District string  `json:"district" binding:"required"`
	Ward     string  `json:"ward" binding:"required"`
	Note     *string `json:"note,omitempty"`
}

// CreateOrderResult deliberately carries no monetary or customer data
type CreateOrderResult struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
}

// PaymentSessionRequest represents a request for a hosted payment page
type PaymentSessionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	OrderCode   string           `json:"orderCode"`
	Description string           `json:"description"`
	OrderID     string           `json:"orderId"`
}

type PaymentSessionResult struct {
	URL           string `json:"url"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// WebhookPayload is the provider notification body. Both snake and camel
// spellings are accepted for the correlation fields.
type WebhookPayload struct {
	OrderCode        string           `json:"order_code"`
	OrderCodeCamel   string           `json:"orderCode"`
	Status           string           `json:"status"`
	Amount           *decimal.Decimal `json:"amount"`
	TransactionID    string           `json:"transaction_id"`
	TransactionCamel string           `json:"transactionId"`
	Content          string           `json:"content"`
}

// ToEvent converts the payload into a webhook event
func (p WebhookPayload) ToEvent() domain.PaymentWebhookEvent {
	event := domain.PaymentWebhookEvent{
		OrderCode: firstNonBlank(p.OrderCode, p.OrderCodeCamel),
		Status:    firstNonBlank(p.Status),
		Content:   p.Content,
	}
	if p.Amount != nil {
		amount := *p.Amount
		event.Amount = &amount
	}
	if tx := firstNonBlank(p.TransactionID, p.TransactionCamel); tx != "" {
		event.TransactionID = &tx
	}
	return event
}

// WebhookOutcome distinguishes the success outcomes of a notification
type WebhookOutcome string

const (
	OutcomeProcessed        WebhookOutcome = "processed"
	OutcomeAlreadyProcessed WebhookOutcome = "already_processed"
	OutcomeAcknowledged     WebhookOutcome = "acknowledged"
)

type WebhookResult struct {
	Outcome        WebhookOutcome
	OrderNumber    string
	AmountMismatch bool
	// NeedsReview is set when money arrived for a cancelled order
	NeedsReview bool
}

type PaymentStatusResult struct {
	IsPaid bool
	Order  *domain.Order
}
