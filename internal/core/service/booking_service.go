package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
	"github.com/ociferry/ferry-booking/internal/pkg/metrics"
)

const (
	dateLayout         = "2006-01-02"
	defaultCheckoutTTL = 30 * time.Minute
)

var errPaymentOutcomeUnknown = errors.New("payment widget reported no outcome")

// BookingService implements checkout, booking history and the admin booking panel.
type BookingService struct {
	store     *BookingStore
	routes    ports.RouteRepository
	profiles  ports.ProfileRepository
	checkouts ports.CheckoutStore
	widget    ports.PaymentWidget
	audit     ports.BookingAuditRepository
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewBookingService(
	store *BookingStore,
	routes ports.RouteRepository,
	profiles ports.ProfileRepository,
	checkouts ports.CheckoutStore,
	widget ports.PaymentWidget,
	audit ports.BookingAuditRepository,
	checkoutTTL time.Duration,
	logger zerolog.Logger,
) *BookingService {
	if checkoutTTL <= 0 {
		checkoutTTL = defaultCheckoutTTL
	}
	return &BookingService{
		store:     store,
		routes:    routes,
		profiles:  profiles,
		checkouts: checkouts,
		widget:    widget,
		audit:     audit,
		ttl:       checkoutTTL,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout validates the booking request, prices it against the current route
// fare and opens a payment for it. Nothing is booked until Confirm succeeds.
func (s *BookingService) Checkout(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
	route, err := s.routes.FindByID(ctx, in.RouteID)
	if err != nil {
		if errors.Is(err, domain.ErrRouteNotFound) {
			verr := domain.NewValidationError()
			verr.Add("route_id", "unknown route")
			return nil, verr
		}
		return nil, err
	}

	now := s.now()
	passenger := domain.Passenger{
		Name:  strings.TrimSpace(in.Passenger.Name),
		Phone: strings.TrimSpace(in.Passenger.Phone),
		Email: strings.TrimSpace(in.Passenger.Email),
	}
	if passenger.Email == "" {
		passenger.Email = in.AccountEmail
	}
	if err := validateCheckout(route, in, passenger, now); err != nil {
		return nil, err
	}

	ref := newPaymentReference(now)
	draft := domain.BookingDraft{
		AccountID:        in.AccountID,
		Route:            route.Snapshot(),
		Date:             in.Date,
		Time:             in.Time,
		SeatCount:        in.Seats,
		Passenger:        passenger,
		PaymentReference: ref,
	}
	total := draft.Total()
	req := domain.PaymentRequest{
		Email:            passenger.Email,
		AmountMinorUnits: total * domain.MinorUnitsPerUnit,
		Reference:        ref,
		Metadata: domain.PaymentMetadata{
			AccountID:    in.AccountID,
			RouteID:      route.ID,
			Seats:        in.Seats,
			CustomerName: passenger.Name,
		},
	}

	session, err := s.widget.Open(ctx, req)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("reference", ref).Msg("failed to open payment")
		return nil, err
	}

	pending := &ports.PendingCheckout{Draft: draft, Payment: req, CreatedAt: now}
	if err := s.checkouts.Save(ctx, pending, s.ttl); err != nil {
		s.logger.Error().Err(err).Str("reference", ref).Msg("failed to store pending checkout")
		return nil, err
	}

	metrics.CheckoutsTotal.WithLabelValues("opened").Inc()
	s.logger.Info().
		Str("reference", ref).
		Str("account_id", in.AccountID).
		Str("route_id", route.ID).
		Int64("total_amount", total).
		Msg("checkout opened")

	return &ports.CheckoutResult{
		Reference:   ref,
		Route:       draft.Route,
		Date:        draft.Date,
		Time:        draft.Time,
		Seats:       draft.SeatCount,
		TotalAmount: total,
		Payment:     req,
		Session:     session,
		ExpiresAt:   now.Add(s.ttl),
	}, nil
}

// Confirm resolves the payment of a pending checkout. A successful payment
// creates exactly one confirmed booking per reference.
func (s *BookingService) Confirm(ctx context.Context, accountID, reference string) (*domain.Booking, error) {
	pending, err := s.checkouts.Find(ctx, reference)
	if err != nil {
		return nil, err
	}
	if pending.Draft.AccountID != accountID {
		return nil, domain.ErrCheckoutNotFound
	}

	claimed, err := s.checkouts.Claim(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !claimed {
		metrics.CheckoutsTotal.WithLabelValues("replayed").Inc()
		return nil, domain.ErrCheckoutAlreadyConfirmed
	}

	var (
		paid      *domain.PaymentResult
		cancelled bool
	)
	err = s.widget.Complete(ctx, pending.Payment, domain.PaymentCallbacks{
		OnSuccess:   func(r domain.PaymentResult) { paid = &r },
		OnCancelled: func() { cancelled = true },
	})
	switch {
	case err != nil:
		s.release(ctx, reference)
		metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		return nil, err
	case paid == nil && cancelled:
		s.release(ctx, reference)
		metrics.CheckoutsTotal.WithLabelValues("cancelled").Inc()
		s.logger.Info().Str("reference", reference).Msg("payment cancelled")
		return nil, domain.ErrPaymentCancelled
	case paid == nil:
		s.release(ctx, reference)
		metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		return nil, errPaymentOutcomeUnknown
	}

	booking, err := s.store.Create(ctx, pending.Draft, domain.BookingConfirmed, domain.PaymentSuccessful)
	if err != nil {
		s.release(ctx, reference)
		metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("reference", reference).Msg("payment succeeded but booking could not be stored")
		return nil, err
	}

	if err := s.checkouts.Delete(ctx, reference); err != nil {
		s.logger.Warn().Err(err).Str("reference", reference).Msg("failed to delete pending checkout")
	}
	metrics.CheckoutsTotal.WithLabelValues("confirmed").Inc()
	metrics.BookingRevenueTotal.Add(float64(booking.TotalAmount))
	s.logger.Info().
		Str("reference", reference).
		Str("booking_id", booking.ID).
		Str("transaction_id", paid.TransactionID).
		Msg("booking confirmed")
	return booking, nil
}

// History returns the bookings of accountID, newest first.
func (s *BookingService) History(ctx context.Context, accountID string) ([]*domain.Booking, error) {
	return s.store.ListForAccount(ctx, accountID)
}

// AdminList returns every booking matching filter, newest first.
func (s *BookingService) AdminList(ctx context.Context, filter ports.AdminBookingFilter) ([]*domain.Booking, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !domain.BookingStatus(filter.Status).Valid() {
		verr := domain.NewValidationError()
		verr.Add("status", "unknown booking status")
		return nil, verr
	}

	out := make([]*domain.Booking, 0, len(all))
	for _, b := range all {
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		if !b.Matches(filter.Search) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// UpdateStatus applies an admin status change and records it in the audit log.
func (s *BookingService) UpdateStatus(ctx context.Context, in ports.UpdateBookingStatusInput) (*domain.Booking, error) {
	if !in.Status.Valid() {
		verr := domain.NewValidationError()
		verr.Add("status", "unknown booking status")
		return nil, verr
	}

	current, err := s.find(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, in.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, in.BookingID, in.Status)
	if err != nil {
		return nil, err
	}

	event := &domain.BookingStatusEvent{
		BookingID: in.BookingID,
		From:      current.Status,
		To:        in.Status,
		ActorID:   in.ActorID,
		At:        s.now(),
	}
	if err := s.audit.InsertStatusEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", in.BookingID).Msg("failed to record booking status event")
	}

	s.logger.Info().
		Str("booking_id", in.BookingID).
		Str("from", string(current.Status)).
		Str("to", string(in.Status)).
		Str("actor_id", in.ActorID).
		Msg("booking status updated")
	return updated, nil
}

// Stats summarises bookings for the admin dashboard. Cancelled bookings do not
// count towards revenue.
func (s *BookingService) Stats(ctx context.Context, now time.Time) (*ports.DashboardStats, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := s.routes.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.profiles.CountByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	today := now.Format(dateLayout)
	stats := &ports.DashboardStats{
		TotalBookings: len(all),
		TotalRoutes:   routes,
		TotalUsers:    users,
	}
	for _, b := range all {
		created := b.CreatedAt.UTC()
		if created.Format(dateLayout) == today {
			stats.TodayBookings++
		}
		if b.Status == domain.BookingCancelled {
			continue
		}
		stats.TotalRevenue += b.TotalAmount
		if created.Year() == now.Year() && created.Month() == now.Month() {
			stats.MonthlyRevenue += b.TotalAmount
		}
	}
	return stats, nil
}

func (s *BookingService) find(ctx context.Context, id string) (*domain.Booking, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range all {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (s *BookingService) release(ctx context.Context, reference string) {
	if err := s.checkouts.Release(ctx, reference); err != nil {
		s.logger.Warn().Err(err).Str("reference", reference).Msg("failed to release payment reference")
	}
}

func validateCheckout(route *domain.Route, in ports.CheckoutInput, passenger domain.Passenger, now time.Time) error {
	verr := domain.NewValidationError()

	if in.Date == "" {
		verr.Add("date", "is required")
	} else if _, err := time.Parse(dateLayout, in.Date); err != nil {
		verr.Add("date", "must be formatted as YYYY-MM-DD")
	} else if in.Date < now.Format(dateLayout) {
		verr.Add("date", "must not be in the past")
	}

	if in.Time == "" {
		verr.Add("time", "is required")
	} else if !route.Departs(in.Time) {
		verr.Add("time", "is not a scheduled departure for this route")
	}

	if in.Seats < 1 || in.Seats > domain.MaxSeatsPerBooking {
		verr.Add("seats", fmt.Sprintf("must be between 1 and %d", domain.MaxSeatsPerBooking))
	}
	if passenger.Name == "" {
		verr.Add("passenger.name", "is required")
	}
	if passenger.Phone == "" {
		verr.Add("passenger.phone", "is required")
	}
	return verr.OrNil()
}

// newPaymentReference returns a reference in the format OCI_<unix-ms>_<0-9999>.
func newPaymentReference(now time.Time) string {
	return fmt.Sprintf("OCI_%d_%d", now.UnixMilli(), rand.IntN(10000))
}
