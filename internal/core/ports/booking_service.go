package ports

import (
	"context"
	"time"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// CheckoutInput carries everything needed to price a booking and open its payment.
type CheckoutInput struct {
	AccountID    string
	AccountEmail string
	RouteID      string
	Date         string
	Time         string
	Seats        int
	Passenger    domain.Passenger
}

// CheckoutResult is returned once the payment widget has been opened.
type CheckoutResult struct {
	Reference   string
	Route       domain.RouteSnapshot
	Date        string
	Time        string
	Seats       int
	TotalAmount int64
	Payment     domain.PaymentRequest
	Session     *domain.PaymentSession
	ExpiresAt   time.Time
}

// AdminBookingFilter narrows the admin booking list.
type AdminBookingFilter struct {
	Status string // empty = all
	Search string // matches id, origin, destination or payment reference
}

// UpdateBookingStatusInput is an admin status change.
type UpdateBookingStatusInput struct {
	BookingID string
	Status    domain.BookingStatus
	ActorID   string
}

// DashboardStats summarises bookings for the admin panel.
type DashboardStats struct {
	TotalBookings  int
	TotalRevenue   int64
	TodayBookings  int
	MonthlyRevenue int64
	TotalRoutes    int64
	TotalUsers     int64
}

// BookingService defines use-case operations for bookings.
type BookingService interface {
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
	Confirm(ctx context.Context, accountID, reference string) (*domain.Booking, error)
	History(ctx context.Context, accountID string) ([]*domain.Booking, error)
	AdminList(ctx context.Context, filter AdminBookingFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, in UpdateBookingStatusInput) (*domain.Booking, error)
	Stats(ctx context.Context, now time.Time) (*DashboardStats, error)
}
