package paygate

// SessionRequest is the payload sent to create a hosted payment page
type SessionRequest struct {
	OrderCode   string `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	WebhookURL  string `json:"webhookUrl"`
}

// SessionResponse is what callers need from a created session
type SessionResponse struct {
	CheckoutURL   string
	TransactionID string
}

// envelope is the provider's response wrapper. Providers disagree on field
// names, so every known spelling is accepted.
type envelope struct {
	Code    string       `json:"code"`
	Desc    string       `json:"desc"`
	Message string       `json:"message"`
	Error   string       `json:"error"`
	Data    *sessionData `json:"data"`
}

type sessionData struct {
	CheckoutURL   string `json:"checkoutUrl"`
	PaymentURL    string `json:"paymentUrl"`
	URL           string `json:"url"`
	PaymentLinkID string `json:"paymentLinkId"`
	TransactionID string `json:"transactionId"`
	ID            string `json:"id"`
}

func (d *sessionData) checkoutURL() string {
	if d == nil {
		return ""
	}
	return firstNonEmpty(d.CheckoutURL, d.PaymentURL, d.URL)
}

func (d *sessionData) transactionID() string {
	if d == nil {
		return ""
	}
	return firstNonEmpty(d.TransactionID, d.PaymentLinkID, d.ID)
}

func (e *envelope) message() string {
	return firstNonEmpty(e.Message, e.Desc, e.Error)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
