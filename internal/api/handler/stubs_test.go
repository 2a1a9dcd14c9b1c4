package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ociferry/ferry-booking/internal/api/middleware"
	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

type stubSessionService struct {
	signUpFn  func(ctx context.Context, email, password, name string) (*domain.Identity, error)
	signInFn  func(ctx context.Context, email, password string) (*ports.SignInResult, error)
	signOutFn func(ctx context.Context, token string) error
	refreshFn func(ctx context.Context, token string) (*ports.SignInResult, error)
	confirmFn func(ctx context.Context, token string) (*domain.Identity, error)
	renameFn  func(ctx context.Context, token, name string) (domain.Session, error)
}

func (s *stubSessionService) SignUp(ctx context.Context, email, password, name string) (*domain.Identity, error) {
	return s.signUpFn(ctx, email, password, name)
}

func (s *stubSessionService) SignIn(ctx context.Context, email, password string) (*ports.SignInResult, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubSessionService) SignOut(ctx context.Context, token string) error {
	return s.signOutFn(ctx, token)
}

func (s *stubSessionService) Refresh(ctx context.Context, token string) (*ports.SignInResult, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubSessionService) ConfirmEmail(ctx context.Context, token string) (*domain.Identity, error) {
	return s.confirmFn(ctx, token)
}

func (s *stubSessionService) Attach(_ context.Context, _ string) (domain.Session, error) {
	return domain.Session{}, domain.ErrUnauthenticated
}

func (s *stubSessionService) Rename(ctx context.Context, token, name string) (domain.Session, error) {
	return s.renameFn(ctx, token, name)
}

type stubBookingService struct {
	checkoutFn     func(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error)
	confirmFn      func(ctx context.Context, accountID, reference string) (*domain.Booking, error)
	historyFn      func(ctx context.Context, accountID string) ([]*domain.Booking, error)
	adminListFn    func(ctx context.Context, f ports.AdminBookingFilter) ([]*domain.Booking, error)
	updateStatusFn func(ctx context.Context, in ports.UpdateBookingStatusInput) (*domain.Booking, error)
	statsFn        func(ctx context.Context, now time.Time) (*ports.DashboardStats, error)
}

func (s *stubBookingService) Checkout(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
	return s.checkoutFn(ctx, in)
}

func (s *stubBookingService) Confirm(ctx context.Context, accountID, reference string) (*domain.Booking, error) {
	return s.confirmFn(ctx, accountID, reference)
}

func (s *stubBookingService) History(ctx context.Context, accountID string) ([]*domain.Booking, error) {
	return s.historyFn(ctx, accountID)
}

func (s *stubBookingService) AdminList(ctx context.Context, f ports.AdminBookingFilter) ([]*domain.Booking, error) {
	return s.adminListFn(ctx, f)
}

func (s *stubBookingService) UpdateStatus(ctx context.Context, in ports.UpdateBookingStatusInput) (*domain.Booking, error) {
	return s.updateStatusFn(ctx, in)
}

func (s *stubBookingService) Stats(ctx context.Context, now time.Time) (*ports.DashboardStats, error) {
	return s.statsFn(ctx, now)
}

type stubRouteService struct {
	routes map[string]*domain.Route
	lastIn ports.RouteInput
}

func (s *stubRouteService) List(context.Context) ([]*domain.Route, error) {
	out := make([]*domain.Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRouteService) Get(_ context.Context, id string) (*domain.Route, error) {
	r, ok := s.routes[id]
	if !ok {
		return nil, domain.ErrRouteNotFound
	}
	return r, nil
}

func (s *stubRouteService) Create(_ context.Context, in ports.RouteInput) (*domain.Route, error) {
	s.lastIn = in
	r := &domain.Route{ID: "route-new", Origin: in.Origin, Destination: in.Destination, Fare: in.Fare,
		DurationLabel: in.DurationLabel, Schedule: in.Schedule, Capacity: in.Capacity}
	s.routes[r.ID] = r
	return r, nil
}

func (s *stubRouteService) Update(_ context.Context, id string, in ports.RouteInput) (*domain.Route, error) {
	if _, ok := s.routes[id]; !ok {
		return nil, domain.ErrRouteNotFound
	}
	s.lastIn = in
	r := &domain.Route{ID: id, Origin: in.Origin, Destination: in.Destination, Fare: in.Fare,
		DurationLabel: in.DurationLabel, Schedule: in.Schedule, Capacity: in.Capacity}
	s.routes[id] = r
	return r, nil
}

func (s *stubRouteService) Delete(_ context.Context, id string) error {
	if _, ok := s.routes[id]; !ok {
		return domain.ErrRouteNotFound
	}
	delete(s.routes, id)
	return nil
}

func (s *stubRouteService) SeedDefaults(context.Context) (int, error) { return 0, nil }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func userSession() domain.Session {
	return domain.Session{
		State:     domain.StateAuthenticated,
		SessionID: "sid-1",
		Identity:  &domain.Identity{ID: "acc-1", Email: "ada@example.com"},
		Profile:   &domain.Profile{ID: "acc-1", Name: "Ada", Role: domain.RoleUser},
	}
}

// authenticate sets what the Auth middleware would on c.
func authenticate(c echo.Context, s domain.Session, token string) {
	c.Set(middleware.ContextSession, s)
	c.Set(middleware.ContextToken, token)
	c.Set(middleware.ContextAccountID, s.Identity.ID)
	c.Set(middleware.ContextRole, string(s.Role()))
}
