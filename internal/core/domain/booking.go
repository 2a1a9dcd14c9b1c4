package domain

import (
	"strings"
	"time"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// validTransitions defines the status changes the admin panel may apply.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingCancelled: {BookingConfirmed},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// PaymentStatus tracks the outcome of the payment attached to a booking.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSuccessful PaymentStatus = "successful"
	PaymentFailed     PaymentStatus = "failed"
)

// MaxSeatsPerBooking caps the seat count of a single booking.
const MaxSeatsPerBooking = 8

// RouteSnapshot freezes the route details a booking was priced against.
type RouteSnapshot struct {
	ID            string `json:"id" bson:"id"`
	Origin        string `json:"origin" bson:"origin"`
	Destination   string `json:"destination" bson:"destination"`
	Fare          int64  `json:"fare" bson:"fare"`
	DurationLabel string `json:"duration" bson:"duration"`
}

// Passenger holds the traveller contact details captured at checkout.
type Passenger struct {
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// BookingDraft is a booking before it is stored.
type BookingDraft struct {
	AccountID        string
	Route            RouteSnapshot
	Date             string
	Time             string
	SeatCount        int
	Passenger        Passenger
	PaymentReference string
}

// Total is the amount charged for the draft: fare × seats.
func (d BookingDraft) Total() int64 {
	return d.Route.Fare * int64(d.SeatCount)
}

// Booking is a ferry ticket purchase record.
type Booking struct {
	ID               string        `json:"id" bson:"_id"`
	AccountID        string        `json:"account_id" bson:"account_id"`
	RouteID          string        `json:"route_id" bson:"route_id"`
	Route            RouteSnapshot `json:"route" bson:"route"`
	Date             string        `json:"date" bson:"date"`
	Time             string        `json:"time" bson:"time"`
	SeatCount        int           `json:"seats" bson:"seats"`
	TotalAmount      int64         `json:"total_amount" bson:"total_amount"`
	Status           BookingStatus `json:"status" bson:"status"`
	PaymentReference string        `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
	PaymentStatus    PaymentStatus `json:"payment_status" bson:"payment_status"`
	Passenger        Passenger     `json:"passenger" bson:"passenger"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at"`
}

// NewBooking materialises a draft. TotalAmount is fixed here and never recomputed.
func NewBooking(id string, d BookingDraft, status BookingStatus, payment PaymentStatus, now time.Time) Booking {
	return Booking{
		ID:               id,
		AccountID:        d.AccountID,
		RouteID:          d.Route.ID,
		Route:            d.Route,
		Date:             d.Date,
		Time:             d.Time,
		SeatCount:        d.SeatCount,
		TotalAmount:      d.Total(),
		Status:           status,
		PaymentReference: d.PaymentReference,
		PaymentStatus:    payment,
		Passenger:        d.Passenger,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Matches reports whether the booking contains term in its id, route endpoints
// or payment reference (case-insensitive).
func (b Booking) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{b.ID, b.Route.Origin, b.Route.Destination, b.PaymentReference} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// BookingStatusEvent is an audit record of an admin status change.
type BookingStatusEvent struct {
	BookingID string        `bson:"booking_id"`
	From      BookingStatus `bson:"from"`
	To        BookingStatus `bson:"to"`
	ActorID   string        `bson:"actor_id"`
	At        time.Time     `bson:"at"`
}
