package ports

import (
	"context"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// PaymentWidget is the external payment capture service.
type PaymentWidget interface {
	// Open registers the payment with the provider and returns what the client
	// needs to present the payment page.
	Open(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error)
	// Complete resolves the outcome of a previously opened payment and invokes
	// exactly one of the callbacks. An error means the outcome is unknown.
	Complete(ctx context.Context, req domain.PaymentRequest, cb domain.PaymentCallbacks) error
}
