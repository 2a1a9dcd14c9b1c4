package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ociferry/ferry-booking/internal/core/ports"
)

// RouteHandler serves the public route catalogue and its admin management.
type RouteHandler struct {
	service ports.RouteService
}

func NewRouteHandler(service ports.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// List handles GET /v1/routes.
//
// @Summary      List ferry routes
// @Tags         routes
// @Produce      json
// @Success      200  {array}   routeResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/routes [get]
func (h *RouteHandler) List(c echo.Context) error {
	routes, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]routeResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/routes/:id.
//
// @Summary      Get a ferry route
// @Tags         routes
// @Produce      json
// @Param        id   path      string  true  "Route id"
// @Success      200  {object}  routeResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/routes/{id} [get]
func (h *RouteHandler) Get(c echo.Context) error {
	r, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRouteResponse(r))
}

// Create handles POST /v1/admin/routes.
//
// @Summary      Create a ferry route
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      routeRequest  true  "Route details"
// @Success      201   {object}  routeResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/routes [post]
func (h *RouteHandler) Create(c echo.Context) error {
	var req routeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.service.Create(c.Request().Context(), toRouteInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRouteResponse(r))
}

// Update handles PUT /v1/admin/routes/:id. Existing bookings keep the fare
// they were priced with.
//
// @Summary      Update a ferry route
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Route id"
// @Param        body  body      routeRequest  true  "Route details"
// @Success      200   {object}  routeResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/routes/{id} [put]
func (h *RouteHandler) Update(c echo.Context) error {
	var req routeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.service.Update(c.Request().Context(), c.Param("id"), toRouteInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRouteResponse(r))
}

// Delete handles DELETE /v1/admin/routes/:id.
//
// @Summary      Delete a ferry route
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Route id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/routes/{id} [delete]
func (h *RouteHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
