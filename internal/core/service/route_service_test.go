package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

func validRouteInput() ports.RouteInput {
	return ports.RouteInput{
		Origin:        "Ikorodu",
		Destination:   "CMS",
		Fare:          1500,
		DurationLabel: "50 minutes",
		Schedule:      []string{"17:00", "07:00", "07:00", "12:30"},
		Capacity:      90,
	}
}

func TestRouteService_CreateNormalisesSchedule(t *testing.T) {
	svc := NewRouteService(newStubRouteRepo(), zerolog.Nop())

	r, err := svc.Create(context.Background(), validRouteInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if want := []string{"07:00", "12:30", "17:00"}; !reflect.DeepEqual(r.Schedule, want) {
		t.Fatalf("expected %v, got %v", want, r.Schedule)
	}
	if r.ID == "" || r.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", r)
	}
}

func TestRouteService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*ports.RouteInput)
		field string
	}{
		{"missing origin", func(in *ports.RouteInput) { in.Origin = "" }, "origin"},
		{"missing destination", func(in *ports.RouteInput) { in.Destination = " " }, "destination"},
		{"missing duration", func(in *ports.RouteInput) { in.DurationLabel = "" }, "duration"},
		{"zero fare", func(in *ports.RouteInput) { in.Fare = 0 }, "fare"},
		{"zero capacity", func(in *ports.RouteInput) { in.Capacity = 0 }, "capacity"},
		{"empty schedule", func(in *ports.RouteInput) { in.Schedule = nil }, "schedule"},
		{"bad time", func(in *ports.RouteInput) { in.Schedule = []string{"7am"} }, "schedule"},
		{"short time", func(in *ports.RouteInput) { in.Schedule = []string{"7:00"} }, "schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRouteService(newStubRouteRepo(), zerolog.Nop())
			in := validRouteInput()
			tt.edit(&in)

			_, err := svc.Create(context.Background(), in)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestRouteService_UpdateUnknownRoute(t *testing.T) {
	svc := NewRouteService(newStubRouteRepo(), zerolog.Nop())

	_, err := svc.Update(context.Background(), "route-x", validRouteInput())

	if !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
}

func TestRouteService_SeedDefaultsOnlyWhenEmpty(t *testing.T) {
	repo := newStubRouteRepo()
	svc := NewRouteService(repo, zerolog.Nop())
	ctx := context.Background()

	n, err := svc.SeedDefaults(ctx)
	if err != nil || n != 4 {
		t.Fatalf("expected 4 seeded routes, got %d (%v)", n, err)
	}
	r, err := svc.Get(ctx, "route-2")
	if err != nil || r.Fare != 2000 || r.Origin != "Marina" {
		t.Fatalf("unexpected seeded route %+v (%v)", r, err)
	}

	n, err = svc.SeedDefaults(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected no reseed, got %d (%v)", n, err)
	}
}

func TestRouteService_Delete(t *testing.T) {
	repo := newStubRouteRepo(domain.DefaultRoutes()...)
	svc := NewRouteService(repo, zerolog.Nop())

	if err := svc.Delete(context.Background(), "route-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), "route-1"); !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("expected route gone, got %v", err)
	}
}
