package domain

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusCancelled
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether payment may move forward to newStatus.
// Paid is terminal; failed may still become paid on a later success notification.
func (s PaymentStatus) CanTransitionTo(newStatus PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return newStatus == PaymentStatusPaid || newStatus == PaymentStatusFailed
	case PaymentStatusFailed:
		return newStatus == PaymentStatusPaid
	default:
		return false
	}
}

// PaymentMethod is the closed set of checkout payment methods
type PaymentMethod string

const (
	PaymentMethodCOD            PaymentMethod = "cod"
	PaymentMethodOnlineTransfer PaymentMethod = "online_transfer"
)

// ParsePaymentMethod maps a submitted method tag to a PaymentMethod.
// The storefront historically sent "bank_transfer" for online payment.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch raw {
	case "cod", "cash_on_delivery":
		return PaymentMethodCOD, true
	case "online_transfer", "bank_transfer", "online":
		return PaymentMethodOnlineTransfer, true
	default:
		return "", false
	}
}

// RequiresGateway reports whether orders paid this way go through the payment provider
func (m PaymentMethod) RequiresGateway() bool {
	switch m {
	case PaymentMethodOnlineTransfer:
		return true
	case PaymentMethodCOD:
		return false
	default:
		return false
	}
}
