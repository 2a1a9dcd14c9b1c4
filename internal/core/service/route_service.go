package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

const departureLayout = "15:04"

// RouteService manages the ferry route catalogue.
type RouteService struct {
	repo   ports.RouteRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewRouteService(repo ports.RouteRepository, logger zerolog.Logger) *RouteService {
	return &RouteService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RouteService) List(ctx context.Context) ([]*domain.Route, error) {
	return s.repo.List(ctx)
}

func (s *RouteService) Get(ctx context.Context, id string) (*domain.Route, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *RouteService) Create(ctx context.Context, in ports.RouteInput) (*domain.Route, error) {
	schedule, err := validateRoute(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	route := &domain.Route{
		ID:            "route-" + uuid.NewString(),
		Origin:        strings.TrimSpace(in.Origin),
		Destination:   strings.TrimSpace(in.Destination),
		Fare:          in.Fare,
		DurationLabel: strings.TrimSpace(in.DurationLabel),
		Schedule:      schedule,
		Capacity:      in.Capacity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, route); err != nil {
		s.logger.Error().Err(err).Msg("failed to create route")
		return nil, err
	}
	s.logger.Info().Str("route_id", route.ID).Msg("route created")
	return route, nil
}

// Update replaces the editable fields of a route. Existing bookings keep the
// fare they were priced at.
func (s *RouteService) Update(ctx context.Context, id string, in ports.RouteInput) (*domain.Route, error) {
	schedule, err := validateRoute(in)
	if err != nil {
		return nil, err
	}

	route, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	route.Origin = strings.TrimSpace(in.Origin)
	route.Destination = strings.TrimSpace(in.Destination)
	route.Fare = in.Fare
	route.DurationLabel = strings.TrimSpace(in.DurationLabel)
	route.Schedule = schedule
	route.Capacity = in.Capacity
	route.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, route); err != nil {
		return nil, err
	}
	s.logger.Info().Str("route_id", id).Msg("route updated")
	return route, nil
}

func (s *RouteService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("route_id", id).Msg("route deleted")
	return nil
}

// SeedDefaults inserts the default routes when the catalogue is empty and
// returns how many were inserted.
func (s *RouteService) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	now := s.now()
	inserted := 0
	for _, r := range domain.DefaultRoutes() {
		route := r
		route.CreatedAt = now
		route.UpdatedAt = now
		if err := s.repo.Create(ctx, &route); err != nil {
			return inserted, err
		}
		inserted++
	}
	s.logger.Info().Int("routes", inserted).Msg("seeded default routes")
	return inserted, nil
}

// validateRoute checks in and returns its schedule sorted and de-duplicated.
func validateRoute(in ports.RouteInput) ([]string, error) {
	verr := domain.NewValidationError()
	if strings.TrimSpace(in.Origin) == "" {
		verr.Add("origin", "is required")
	}
	if strings.TrimSpace(in.Destination) == "" {
		verr.Add("destination", "is required")
	}
	if strings.TrimSpace(in.DurationLabel) == "" {
		verr.Add("duration", "is required")
	}
	if in.Fare <= 0 {
		verr.Add("fare", "must be greater than zero")
	}
	if in.Capacity <= 0 {
		verr.Add("capacity", "must be greater than zero")
	}

	seen := make(map[string]struct{}, len(in.Schedule))
	schedule := make([]string, 0, len(in.Schedule))
	for _, t := range in.Schedule {
		t = strings.TrimSpace(t)
		if _, err := time.Parse(departureLayout, t); err != nil || len(t) != len(departureLayout) {
			verr.Add("schedule", "entries must be formatted as HH:MM")
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		schedule = append(schedule, t)
	}
	if len(in.Schedule) == 0 {
		verr.Add("schedule", "must contain at least one departure")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	sort.Strings(schedule)
	return schedule, nil
}
