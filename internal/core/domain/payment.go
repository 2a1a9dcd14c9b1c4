package domain

// MinorUnitsPerUnit converts whole naira to kobo.
const MinorUnitsPerUnit = 100

// PaymentMetadata is attached to a payment so the provider dashboard can be
// traced back to the booking.
type PaymentMetadata struct {
	AccountID    string `json:"account_id"`
	RouteID      string `json:"route_id"`
	Seats        int    `json:"seats"`
	CustomerName string `json:"customer_name"`
}

// PaymentRequest is what the payment widget is opened with.
type PaymentRequest struct {
	Email            string          `json:"email"`
	AmountMinorUnits int64           `json:"amount"`
	Reference        string          `json:"reference"`
	Metadata         PaymentMetadata `json:"metadata"`
}

// PaymentSession is returned when the widget is opened.
type PaymentSession struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	AccessCode       string `json:"access_code,omitempty"`
}

// PaymentResult is reported by the widget on success.
type PaymentResult struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// PaymentCallbacks receive the outcome of a payment. Exactly one is invoked.
type PaymentCallbacks struct {
	OnSuccess   func(PaymentResult)
	OnCancelled func()
}
