package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/pkg/auth"
)

// httpError maps domain errors onto status codes. Anything unknown is a 500.
func (h *Handler) httpError(err error) error {
	var vErr *errs.ValidationError
	switch {
	case errors.As(err, &vErr):
		return echo.NewHTTPError(http.StatusBadRequest, errs.ErrorResponse{Message: vErr.Message, Field: vErr.Field})
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	h.log.Error("internal", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func principal(c echo.Context) (model.Principal, error) {
	ctx := c.Request().Context()
	rawID, err := auth.GetUserID(ctx)
	if err != nil {
		return model.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return model.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid user id")
	}
	role := model.RoleUser
	if auth.IsAdmin(ctx) {
		role = model.RoleAdmin
	}
	return model.Principal{UserID: userID, Role: role}, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
