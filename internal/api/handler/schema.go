package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Auth ---

// Email and password rules live in the identity store so their failures carry
// the friendly auth messages.
type signUpRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"     validate:"max=80"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type confirmEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type profileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
}

type sessionResponse struct {
	State     string           `json:"state"`
	Resolving bool             `json:"resolving"`
	Role      string           `json:"role"`
	Identity  identityResponse `json:"identity"`
	Profile   *profileResponse `json:"profile,omitempty"`
}

type authResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   sessionResponse `json:"session"`
}

// --- Profile ---

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// --- Routes ---

type routeRequest struct {
	Origin      string   `json:"origin"      validate:"required"`
	Destination string   `json:"destination" validate:"required"`
	Fare        int64    `json:"fare"        validate:"gt=0"`
	Duration    string   `json:"duration"    validate:"required"`
	Schedule    []string `json:"schedule"    validate:"required,min=1"`
	Capacity    int      `json:"capacity"    validate:"gt=0"`
}

type routeResponse struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Fare        int64     `json:"fare"`
	Duration    string    `json:"duration"`
	Schedule    []string  `json:"schedule"`
	Capacity    int       `json:"capacity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Bookings ---

type passengerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Date, time, seat and passenger rules are enforced by the booking service.
type checkoutRequest struct {
	RouteID   string           `json:"route_id"  validate:"required"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	Seats     int              `json:"seats"`
	Passenger passengerRequest `json:"passenger"`
}

type routeSnapshotResponse struct {
	ID          string `json:"id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Fare        int64  `json:"fare"`
	Duration    string `json:"duration"`
}

type paymentResponse struct {
	Email            string `json:"email"`
	AmountMinorUnits int64  `json:"amount"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	AccessCode       string `json:"access_code,omitempty"`
}

type checkoutLinks struct {
	Confirm string `json:"confirm"`
}

type checkoutResponse struct {
	Reference   string                `json:"reference"`
	Route       routeSnapshotResponse `json:"route"`
	Date        string                `json:"date"`
	Time        string                `json:"time"`
	Seats       int                   `json:"seats"`
	TotalAmount int64                 `json:"total_amount"`
	Payment     paymentResponse       `json:"payment"`
	ExpiresAt   time.Time             `json:"expires_at"`
	Links       checkoutLinks         `json:"_links"`
}

type passengerResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type bookingResponse struct {
	ID               string                `json:"id"`
	AccountID        string                `json:"account_id"`
	Route            routeSnapshotResponse `json:"route"`
	Date             string                `json:"date"`
	Time             string                `json:"time"`
	Seats            int                   `json:"seats"`
	TotalAmount      int64                 `json:"total_amount"`
	Status           string                `json:"status"`
	PaymentStatus    string                `json:"payment_status"`
	PaymentReference string                `json:"payment_reference,omitempty"`
	Passenger        passengerResponse     `json:"passenger"`
	CreatedAt        time.Time             `json:"created_at"`
}

type bookingListResponse struct {
	Items []bookingResponse `json:"items"`
	Total int               `json:"total"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

type statsResponse struct {
	TotalBookings  int   `json:"total_bookings"`
	TotalRevenue   int64 `json:"total_revenue"`
	TodayBookings  int   `json:"today_bookings"`
	MonthlyRevenue int64 `json:"monthly_revenue"`
	TotalRoutes    int64 `json:"total_routes"`
	TotalUsers     int64 `json:"total_users"`
}
