package domain

import "time"

// Route is a ferry service between two terminals.
type Route struct {
	ID            string    `json:"id" bson:"_id"`
	Origin        string    `json:"origin" bson:"origin"`
	Destination   string    `json:"destination" bson:"destination"`
	Fare          int64     `json:"fare" bson:"fare"`
	DurationLabel string    `json:"duration" bson:"duration"`
	Schedule      []string  `json:"schedule" bson:"schedule"`
	Capacity      int       `json:"capacity" bson:"capacity"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// Snapshot captures the pricing-relevant fields of the route.
func (r Route) Snapshot() RouteSnapshot {
	return RouteSnapshot{
		ID:            r.ID,
		Origin:        r.Origin,
		Destination:   r.Destination,
		Fare:          r.Fare,
		DurationLabel: r.DurationLabel,
	}
}

// Departs reports whether the route has a departure at the given time of day.
func (r Route) Departs(at string) bool {
	for _, t := range r.Schedule {
		if t == at {
			return true
		}
	}
	return false
}

// DefaultRoutes are the services offered when the route table starts empty.
func DefaultRoutes() []Route {
	return []Route{
		{
			ID: "route-1", Origin: "Lagos Island", Destination: "Victoria Island",
			Fare: 2500, DurationLabel: "45 minutes", Capacity: 150,
			Schedule: []string{"06:00", "08:00", "10:00", "12:00", "14:00", "16:00", "18:00"},
		},
		{
			ID: "route-2", Origin: "Marina", Destination: "Ikoyi",
			Fare: 2000, DurationLabel: "30 minutes", Capacity: 120,
			Schedule: []string{"07:00", "09:00", "11:00", "13:00", "15:00", "17:00"},
		},
		{
			ID: "route-3", Origin: "Apapa", Destination: "Tin Can Island",
			Fare: 1800, DurationLabel: "25 minutes", Capacity: 100,
			Schedule: []string{"06:30", "08:30", "10:30", "12:30", "14:30", "16:30"},
		},
		{
			ID: "route-4", Origin: "Lekki Phase 1", Destination: "Banana Island",
			Fare: 3500, DurationLabel: "20 minutes", Capacity: 80,
			Schedule: []string{"08:00", "10:00", "12:00", "14:00", "16:00", "18:00"},
		},
	}
}
