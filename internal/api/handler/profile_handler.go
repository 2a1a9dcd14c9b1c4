package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ociferry/ferry-booking/internal/core/ports"
)

// ProfileHandler serves the caller's own session and profile.
type ProfileHandler struct {
	sessions ports.SessionService
}

func NewProfileHandler(sessions ports.SessionService) *ProfileHandler {
	return &ProfileHandler{sessions: sessions}
}

// Me returns the resolved session of the caller.
//
// @Summary      Current session
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(s))
}

// UpdateMe renames the caller's profile. The role cannot be changed here.
//
// @Summary      Update the current profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/me [patch]
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s, err := h.sessions.Rename(c.Request().Context(), ctxToken(c), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(s))
}
