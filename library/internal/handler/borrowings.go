package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookshelf/library/internal/model"
)

// CreateBorrowing godoc
// @Summary      Borrow a book
// @Tags         borrowings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  model.CreateBorrowingRequest  true  "request"
// @Success      201  {object}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /borrowings [post]
func (h *Handler) CreateBorrowing(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.CreateBorrowingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	borrowing, err := h.librarySvc.Borrow(c.Request().Context(), p, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, borrowing)
}

// GetBorrowings godoc
// @Summary      Outstanding borrowings of the caller
// @Tags         borrowings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /borrowings [get]
func (h *Handler) GetBorrowings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.librarySvc.ListBorrowings(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetBorrowingHistory godoc
// @Summary      All borrowings of the caller
// @Tags         borrowings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /borrowings/history [get]
func (h *Handler) GetBorrowingHistory(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.librarySvc.BorrowingHistory(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetBorrowing godoc
// @Summary      Get borrowing
// @Tags         borrowings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Success      200  {object}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /borrowings/{id} [get]
func (h *Handler) GetBorrowing(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	borrowing, err := h.librarySvc.GetBorrowing(c.Request().Context(), p, id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, borrowing)
}

// ReturnBorrowing godoc
// @Summary      Return a borrowed book
// @Tags         borrowings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Success      200  {object}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /borrowings/{id}/return [post]
func (h *Handler) ReturnBorrowing(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	borrowing, err := h.librarySvc.Return(c.Request().Context(), p, id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, borrowing)
}

// GetAllBorrowings godoc
// @Summary      All borrowings
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/borrowings [get]
func (h *Handler) GetAllBorrowings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.librarySvc.ListAllBorrowings(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetOverdueBorrowings godoc
// @Summary      Overdue borrowings
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/borrowings/overdue [get]
func (h *Handler) GetOverdueBorrowings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.librarySvc.ListOverdue(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateBorrowingStatus godoc
// @Summary      Set borrowing status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Param        request  body  model.UpdateBorrowingStatusRequest  true  "request"
// @Success      200  {object}  model.Borrowing
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/borrowings/{id} [patch]
func (h *Handler) UpdateBorrowingStatus(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req model.UpdateBorrowingStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	borrowing, err := h.librarySvc.UpdateBorrowingStatus(c.Request().Context(), p, id, req.Status)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, borrowing)
}

// DeleteBorrowing godoc
// @Summary      Delete borrowing
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Success      204  "OK"
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/borrowings/{id} [delete]
func (h *Handler) DeleteBorrowing(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteBorrowing(c.Request().Context(), p, id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
