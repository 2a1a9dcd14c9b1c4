package handler

import (
	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

func toSessionResponse(s domain.Session) sessionResponse {
	resp := sessionResponse{
		State:     string(s.State),
		Resolving: s.Resolving,
		Role:      string(s.Role()),
	}
	if s.Identity != nil {
		resp.Identity = identityResponse{ID: s.Identity.ID, Email: s.Identity.Email}
	}
	if s.Profile != nil {
		resp.Identity.Name = s.Profile.Name
		resp.Profile = &profileResponse{
			ID:        s.Profile.ID,
			Name:      s.Profile.Name,
			Role:      string(s.Profile.Role),
			Ephemeral: s.Profile.Ephemeral,
		}
	}
	return resp
}

func toAuthResponse(res *ports.SignInResult) authResponse {
	return authResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Session:   toSessionResponse(res.Session),
	}
}

func toIdentityResponse(i *domain.Identity) identityResponse {
	return identityResponse{ID: i.ID, Email: i.Email, Name: i.MetadataName()}
}

func toRouteResponse(r *domain.Route) routeResponse {
	return routeResponse{
		ID:          r.ID,
		Origin:      r.Origin,
		Destination: r.Destination,
		Fare:        r.Fare,
		Duration:    r.DurationLabel,
		Schedule:    r.Schedule,
		Capacity:    r.Capacity,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toRouteInput(req routeRequest) ports.RouteInput {
	return ports.RouteInput{
		Origin:        req.Origin,
		Destination:   req.Destination,
		Fare:          req.Fare,
		DurationLabel: req.Duration,
		Schedule:      req.Schedule,
		Capacity:      req.Capacity,
	}
}

func toRouteSnapshotResponse(r domain.RouteSnapshot) routeSnapshotResponse {
	return routeSnapshotResponse{
		ID:          r.ID,
		Origin:      r.Origin,
		Destination: r.Destination,
		Fare:        r.Fare,
		Duration:    r.DurationLabel,
	}
}

func toCheckoutResponse(res *ports.CheckoutResult) checkoutResponse {
	payment := paymentResponse{
		Email:            res.Payment.Email,
		AmountMinorUnits: res.Payment.AmountMinorUnits,
		Reference:        res.Payment.Reference,
	}
	if res.Session != nil {
		payment.AuthorizationURL = res.Session.AuthorizationURL
		payment.AccessCode = res.Session.AccessCode
	}
	return checkoutResponse{
		Reference:   res.Reference,
		Route:       toRouteSnapshotResponse(res.Route),
		Date:        res.Date,
		Time:        res.Time,
		Seats:       res.Seats,
		TotalAmount: res.TotalAmount,
		Payment:     payment,
		ExpiresAt:   res.ExpiresAt,
		Links: checkoutLinks{
			Confirm: "/v1/bookings/checkout/" + res.Reference + "/confirm",
		},
	}
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		AccountID:        b.AccountID,
		Route:            toRouteSnapshotResponse(b.Route),
		Date:             b.Date,
		Time:             b.Time,
		Seats:            b.SeatCount,
		TotalAmount:      b.TotalAmount,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentReference: b.PaymentReference,
		Passenger: passengerResponse{
			Name:  b.Passenger.Name,
			Phone: b.Passenger.Phone,
			Email: b.Passenger.Email,
		},
		CreatedAt: b.CreatedAt,
	}
}

func toBookingList(bs []*domain.Booking) bookingListResponse {
	items := make([]bookingResponse, 0, len(bs))
	for _, b := range bs {
		items = append(items, toBookingResponse(b))
	}
	return bookingListResponse{Items: items, Total: len(items)}
}

func toStatsResponse(s *ports.DashboardStats) statsResponse {
	return statsResponse{
		TotalBookings:  s.TotalBookings,
		TotalRevenue:   s.TotalRevenue,
		TodayBookings:  s.TodayBookings,
		MonthlyRevenue: s.MonthlyRevenue,
		TotalRoutes:    s.TotalRoutes,
		TotalUsers:     s.TotalUsers,
	}
}
