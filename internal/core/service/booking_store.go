package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
	"github.com/ociferry/ferry-booking/internal/pkg/metrics"
)

// BookingStore writes bookings to the local cache and the remote table and
// reads them back as a union in which the local copy wins.
//
// The local cache is authoritative for this deployment: a booking that was
// written locally is always visible even when the remote table is down.
type BookingStore struct {
	local  ports.BookingCache
	remote ports.BookingTable
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewBookingStore(local ports.BookingCache, remote ports.BookingTable, logger zerolog.Logger) *BookingStore {
	return &BookingStore{
		local:  local,
		remote: remote,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Create materialises draft and stores it. A local write failure fails the
// call; a remote failure is logged and absorbed.
func (s *BookingStore) Create(ctx context.Context, draft domain.BookingDraft, status domain.BookingStatus, payment domain.PaymentStatus) (*domain.Booking, error) {
	b := domain.NewBooking(s.newID(), draft, status, payment, s.now())

	if err := s.local.Put(ctx, &b); err != nil {
		s.logger.Error().Err(err).Str("account_id", b.AccountID).Msg("failed to cache booking")
		return nil, err
	}
	metrics.BookingsCreatedTotal.WithLabelValues(b.RouteID).Inc()

	if err := s.remote.Insert(ctx, &b); err != nil {
		metrics.BookingRemoteErrorsTotal.WithLabelValues("insert").Inc()
		s.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("remote booking insert failed, kept locally")
	}

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("account_id", b.AccountID).
		Str("route_id", b.RouteID).
		Int64("total_amount", b.TotalAmount).
		Msg("booking created")
	return &b, nil
}

// ListForAccount returns the bookings of accountID, newest first.
func (s *BookingStore) ListForAccount(ctx context.Context, accountID string) ([]*domain.Booking, error) {
	local, err := s.local.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	remote, err := s.remote.ListByAccount(ctx, accountID)
	if err != nil {
		metrics.BookingRemoteErrorsTotal.WithLabelValues("list").Inc()
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("remote booking list failed, serving local bookings")
		remote = nil
	}
	return mergeBookings(local, remote), nil
}

// ListAll returns every known booking, newest first.
func (s *BookingStore) ListAll(ctx context.Context) ([]*domain.Booking, error) {
	local, err := s.local.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := s.remote.ListAll(ctx)
	if err != nil {
		metrics.BookingRemoteErrorsTotal.WithLabelValues("list").Inc()
		s.logger.Warn().Err(err).Msg("remote booking list failed, serving local bookings")
		remote = nil
	}
	return mergeBookings(local, remote), nil
}

// UpdateStatus sets the status on both copies. Either copy may be missing;
// ErrBookingNotFound is returned only when neither holds the booking.
func (s *BookingStore) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	local, localErr := s.local.UpdateStatus(ctx, id, status)
	if localErr != nil && !errors.Is(localErr, domain.ErrBookingNotFound) {
		return nil, localErr
	}

	remote, remoteErr := s.remote.UpdateStatus(ctx, id, status)
	if remoteErr != nil && !errors.Is(remoteErr, domain.ErrBookingNotFound) {
		metrics.BookingRemoteErrorsTotal.WithLabelValues("update_status").Inc()
		s.logger.Warn().Err(remoteErr).Str("booking_id", id).Msg("remote booking status update failed")
		if local == nil {
			return nil, remoteErr
		}
	}

	switch {
	case local != nil:
		return local, nil
	case remote != nil:
		return remote, nil
	default:
		return nil, domain.ErrBookingNotFound
	}
}

// ClearLocal drops the cached bookings of accountID. Remote rows are kept.
func (s *BookingStore) ClearLocal(ctx context.Context, accountID string) error {
	return s.local.ClearAccount(ctx, accountID)
}

// mergeBookings unions two booking lists by id, keeping the local copy of a
// duplicate, and orders the result by creation time descending.
func mergeBookings(local, remote []*domain.Booking) []*domain.Booking {
	seen := make(map[string]struct{}, len(local)+len(remote))
	out := make([]*domain.Booking, 0, len(local)+len(remote))
	for _, b := range local {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	for _, b := range remote {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
