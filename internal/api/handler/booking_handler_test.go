package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

func sampleBooking() *domain.Booking {
	return &domain.Booking{
		ID:               "bk-1",
		AccountID:        "acc-1",
		RouteID:          "route-2",
		Route:            domain.RouteSnapshot{ID: "route-2", Origin: "Marina", Destination: "Ikoyi", Fare: 2000, DurationLabel: "30 minutes"},
		Date:             "2030-05-01",
		Time:             "09:00",
		SeatCount:        3,
		TotalAmount:      6000,
		Status:           domain.BookingConfirmed,
		PaymentStatus:    domain.PaymentSuccessful,
		PaymentReference: "OCI_1_1",
		Passenger:        domain.Passenger{Name: "Ada", Phone: "0800"},
		CreatedAt:        time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBookingHandler_Checkout(t *testing.T) {
	e := newTestEcho()
	var got ports.CheckoutInput
	stub := &stubBookingService{
		checkoutFn: func(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
			got = in
			return &ports.CheckoutResult{
				Reference:   "OCI_1_1",
				Route:       sampleBooking().Route,
				Date:        in.Date,
				Time:        in.Time,
				Seats:       in.Seats,
				TotalAmount: 6000,
				Payment:     domain.PaymentRequest{Email: "ada@example.com", AmountMinorUnits: 600000, Reference: "OCI_1_1"},
				Session:     &domain.PaymentSession{Reference: "OCI_1_1", AuthorizationURL: "https://pay.example/abc"},
			}, nil
		},
	}
	handler := NewBookingHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/v1/bookings/checkout",
		`{"route_id":"route-2","date":"2030-05-01","time":"09:00","seats":3,"passenger":{"name":"Ada","phone":"0800"}}`)
	authenticate(c, userSession(), "tok-1")

	if err := handler.Checkout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.AccountID != "acc-1" || got.AccountEmail != "ada@example.com" || got.Seats != 3 || got.Passenger.Phone != "0800" {
		t.Fatalf("unexpected service input: %+v", got)
	}

	var resp checkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.TotalAmount != 6000 || resp.Payment.AmountMinorUnits != 600000 {
		t.Fatalf("unexpected amounts: %+v", resp)
	}
	if resp.Payment.AuthorizationURL != "https://pay.example/abc" {
		t.Fatalf("expected authorization url, got %+v", resp.Payment)
	}
	if resp.Links.Confirm != "/v1/bookings/checkout/OCI_1_1/confirm" {
		t.Fatalf("unexpected confirm link %q", resp.Links.Confirm)
	}
}

func TestBookingHandler_CheckoutBadPassengerEmail(t *testing.T) {
	e := newTestEcho()
	handler := NewBookingHandler(&stubBookingService{})

	c, _ := newJSONContext(e, http.MethodPost, "/v1/bookings/checkout",
		`{"route_id":"route-2","passenger":{"name":"Ada","phone":"0800","email":"nope"}}`)
	authenticate(c, userSession(), "tok-1")

	err := handler.Checkout(c)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["passenger.email"]; !ok {
		t.Fatalf("expected passenger.email error, got %v", verr.Fields)
	}
}

func TestBookingHandler_CheckoutRequiresSession(t *testing.T) {
	e := newTestEcho()
	handler := NewBookingHandler(&stubBookingService{})

	c, _ := newJSONContext(e, http.MethodPost, "/v1/bookings/checkout", `{"route_id":"route-2"}`)

	if err := handler.Checkout(c); err == nil {
		t.Fatal("expected an error without a session")
	}
}

func TestBookingHandler_Confirm(t *testing.T) {
	e := newTestEcho()
	stub := &stubBookingService{
		confirmFn: func(ctx context.Context, accountID, reference string) (*domain.Booking, error) {
			if accountID != "acc-1" || reference != "OCI_1_1" {
				t.Fatalf("unexpected args %s %s", accountID, reference)
			}
			return sampleBooking(), nil
		},
	}
	handler := NewBookingHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/", "")
	c.SetPath("/v1/bookings/checkout/:reference/confirm")
	c.SetParamNames("reference")
	c.SetParamValues("OCI_1_1")
	authenticate(c, userSession(), "tok-1")

	if err := handler.Confirm(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp bookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "confirmed" || resp.PaymentStatus != "successful" || resp.Seats != 3 {
		t.Fatalf("unexpected booking payload: %+v", resp)
	}
}

func TestBookingHandler_ConfirmReplay(t *testing.T) {
	e := newTestEcho()
	stub := &stubBookingService{
		confirmFn: func(context.Context, string, string) (*domain.Booking, error) {
			return nil, domain.ErrCheckoutAlreadyConfirmed
		},
	}
	handler := NewBookingHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/", "")
	c.SetParamNames("reference")
	c.SetParamValues("OCI_1_1")
	authenticate(c, userSession(), "tok-1")

	if err := handler.Confirm(c); !errors.Is(err, domain.ErrCheckoutAlreadyConfirmed) {
		t.Fatalf("expected ErrCheckoutAlreadyConfirmed, got %v", err)
	}
}

func TestBookingHandler_History(t *testing.T) {
	e := newTestEcho()
	stub := &stubBookingService{
		historyFn: func(ctx context.Context, accountID string) ([]*domain.Booking, error) {
			if accountID != "acc-1" {
				t.Fatalf("unexpected account %s", accountID)
			}
			return []*domain.Booking{sampleBooking()}, nil
		},
	}
	handler := NewBookingHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/v1/bookings", "")
	authenticate(c, userSession(), "tok-1")

	if err := handler.History(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp bookingListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ID != "bk-1" || resp.Items[0].Route.Origin != "Marina" {
		t.Fatalf("unexpected history: %+v", resp)
	}
}

func TestBookingHandler_AdminListPassesFilter(t *testing.T) {
	e := newTestEcho()
	var got ports.AdminBookingFilter
	stub := &stubBookingService{
		adminListFn: func(ctx context.Context, f ports.AdminBookingFilter) ([]*domain.Booking, error) {
			got = f
			return nil, nil
		},
	}
	handler := NewBookingHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/v1/admin/bookings?status=confirmed&search=marina", "")

	if err := handler.AdminList(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.Status != "confirmed" || got.Search != "marina" {
		t.Fatalf("unexpected filter %+v", got)
	}
	var resp bookingListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Items == nil || resp.Total != 0 {
		t.Fatalf("expected an empty list, got %+v", resp)
	}
}

func TestBookingHandler_UpdateStatus(t *testing.T) {
	e := newTestEcho()
	var got ports.UpdateBookingStatusInput
	stub := &stubBookingService{
		updateStatusFn: func(ctx context.Context, in ports.UpdateBookingStatusInput) (*domain.Booking, error) {
			got = in
			b := sampleBooking()
			b.Status = in.Status
			return b, nil
		},
	}
	handler := NewBookingHandler(stub)

	admin := userSession()
	admin.Profile.Role = domain.RoleAdmin
	c, rec := newJSONContext(e, http.MethodPatch, "/", `{"status":"completed"}`)
	c.SetParamNames("id")
	c.SetParamValues("bk-1")
	authenticate(c, admin, "tok-admin")

	if err := handler.UpdateStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.BookingID != "bk-1" || got.Status != domain.BookingCompleted || got.ActorID != "acc-1" {
		t.Fatalf("unexpected input %+v", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBookingHandler_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	e := newTestEcho()
	handler := NewBookingHandler(&stubBookingService{})

	c, _ := newJSONContext(e, http.MethodPatch, "/", `{"status":"refunded"}`)
	c.SetParamNames("id")
	c.SetParamValues("bk-1")
	authenticate(c, userSession(), "tok-1")

	var verr *domain.ValidationError
	if err := handler.UpdateStatus(c); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookingHandler_Stats(t *testing.T) {
	e := newTestEcho()
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubBookingService{
		statsFn: func(ctx context.Context, at time.Time) (*ports.DashboardStats, error) {
			if !at.Equal(now) {
				t.Fatalf("unexpected now %v", at)
			}
			return &ports.DashboardStats{TotalBookings: 3, TotalRevenue: 9000, TotalRoutes: 4, TotalUsers: 2}, nil
		},
	}
	handler := NewBookingHandler(stub)
	handler.now = func() time.Time { return now }

	c, rec := newJSONContext(e, http.MethodGet, "/v1/admin/stats", "")

	if err := handler.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.TotalBookings != 3 || resp.TotalRevenue != 9000 || resp.TotalUsers != 2 {
		t.Fatalf("unexpected stats %+v", resp)
	}
}
