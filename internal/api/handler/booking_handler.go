package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

// BookingHandler handles HTTP requests for checkout and booking history.
type BookingHandler struct {
	service ports.BookingService
	now     func() time.Time
}

func NewBookingHandler(service ports.BookingService) *BookingHandler {
	return &BookingHandler{service: service, now: time.Now}
}

// Checkout prices a booking and opens its payment.
//
// @Summary      Start a booking checkout
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      checkoutRequest  true  "Booking details"
// @Success      201   {object}  checkoutResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/bookings/checkout [post]
func (h *BookingHandler) Checkout(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req checkoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Checkout(c.Request().Context(), ports.CheckoutInput{
		AccountID:    s.Identity.ID,
		AccountEmail: s.Identity.Email,
		RouteID:      req.RouteID,
		Date:         req.Date,
		Time:         req.Time,
		Seats:        req.Seats,
		Passenger: domain.Passenger{
			Name:  req.Passenger.Name,
			Phone: req.Passenger.Phone,
			Email: req.Passenger.Email,
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toCheckoutResponse(res))
}

// Confirm resolves the payment of a checkout and records the booking.
//
// @Summary      Confirm a booking checkout
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string  true  "Payment reference (e.g. OCI_1718000000000_42)"
// @Success      201        {object}  bookingResponse
// @Failure      401        {object}  errorResponse
// @Failure      402        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Router       /v1/bookings/checkout/{reference}/confirm [post]
func (h *BookingHandler) Confirm(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}

	b, err := h.service.Confirm(c.Request().Context(), s.Identity.ID, c.Param("reference"))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/bookings")
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// History returns the caller's bookings, newest first.
//
// @Summary      Booking history
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  bookingListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/bookings [get]
func (h *BookingHandler) History(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}

	bookings, err := h.service.History(c.Request().Context(), s.Identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingList(bookings))
}

// AdminList returns every booking, optionally filtered.
//
// @Summary      List all bookings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Booking status"  Enums(pending, confirmed, cancelled, completed)
// @Param        search  query     string  false  "Matches id, origin, destination or payment reference"
// @Success      200     {object}  bookingListResponse
// @Failure      403     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/admin/bookings [get]
func (h *BookingHandler) AdminList(c echo.Context) error {
	bookings, err := h.service.AdminList(c.Request().Context(), ports.AdminBookingFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingList(bookings))
}

// UpdateStatus applies an admin status change to a booking.
//
// @Summary      Update booking status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                      true  "Booking id"
// @Param        body  body      updateBookingStatusRequest  true  "New status"
// @Success      200   {object}  bookingResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req updateBookingStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.service.UpdateStatus(c.Request().Context(), ports.UpdateBookingStatusInput{
		BookingID: c.Param("id"),
		Status:    domain.BookingStatus(req.Status),
		ActorID:   s.Identity.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Stats returns the admin dashboard figures.
//
// @Summary      Dashboard statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/stats [get]
func (h *BookingHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context(), h.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(stats))
}
