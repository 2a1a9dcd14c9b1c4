package ports

import (
	"context"
	"time"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// PendingCheckout is a priced booking draft waiting for its payment outcome.
type PendingCheckout struct {
	Draft     domain.BookingDraft   `json:"draft"`
	Payment   domain.PaymentRequest `json:"payment"`
	CreatedAt time.Time             `json:"created_at"`
}

// CheckoutStore keeps pending checkouts and guards each payment reference so
// it produces at most one booking.
type CheckoutStore interface {
	Save(ctx context.Context, c *PendingCheckout, ttl time.Duration) error
	// Find returns domain.ErrCheckoutNotFound when the checkout expired or never existed.
	Find(ctx context.Context, reference string) (*PendingCheckout, error)
	// Claim reports false when the reference was already claimed.
	Claim(ctx context.Context, reference string) (bool, error)
	Release(ctx context.Context, reference string) error
	Delete(ctx context.Context, reference string) error
}
