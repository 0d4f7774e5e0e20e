package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookshelf/library/internal/model"
)

// Register godoc
// @Summary      Register a reader
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body  model.UserCreateRequest  true  "request"
// @Success      201  {object}  model.User
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /register [post]
func (h *Handler) Register(c echo.Context) error {
	var req model.UserCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.librarySvc.Register(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Authorize godoc
// @Summary      Issue an access token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body  model.AuthRequest  true  "request"
// @Success      200  {object}  model.AuthResponse
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /authorize [post]
func (h *Handler) Authorize(c echo.Context) error {
	var req model.AuthRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	resp, err := h.librarySvc.Authorize(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetProfile godoc
// @Summary      Current profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.User
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.librarySvc.GetProfile(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  model.UpdateProfileRequest  true  "request"
// @Success      200  {object}  model.User
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /me [patch]
func (h *Handler) UpdateProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.librarySvc.UpdateProfile(c.Request().Context(), p, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetUserStats godoc
// @Summary      Borrowing and wishlist counters
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.UserStats
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /me/stats [get]
func (h *Handler) GetUserStats(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.librarySvc.UserStats(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetStats godoc
// @Summary      Per-user borrowing stats
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.StatsInfo
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/stats [get]
func (h *Handler) GetStats(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.librarySvc.GetStats(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
