package ports

import (
	"context"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// BookingCache is the fast local copy of bookings written by this deployment.
type BookingCache interface {
	Put(ctx context.Context, b *domain.Booking) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Booking, error)
	ListAll(ctx context.Context) ([]*domain.Booking, error)
	// UpdateStatus returns domain.ErrBookingNotFound when the booking is not cached.
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	ClearAccount(ctx context.Context, accountID string) error
}

// BookingTable is the durable remote booking table.
type BookingTable interface {
	Insert(ctx context.Context, b *domain.Booking) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Booking, error)
	ListAll(ctx context.Context) ([]*domain.Booking, error)
	// UpdateStatus returns domain.ErrBookingNotFound when no row matches id.
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
}

// BookingAuditRepository records admin status changes.
type BookingAuditRepository interface {
	InsertStatusEvent(ctx context.Context, e *domain.BookingStatusEvent) error
}
