package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookshelf/library/internal/model"
)

// GetBookReviews godoc
// @Summary      Reviews of a book
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "id"
// @Success      200  {array}  model.Review
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /books/{id}/reviews [get]
func (h *Handler) GetBookReviews(c echo.Context) error {
	bookID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.librarySvc.ListReviewsForBook(c.Request().Context(), bookID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// CreateReview godoc
// @Summary      Write a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  model.CreateReviewRequest  true  "request"
// @Success      201  {object}  model.Review
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /reviews [post]
func (h *Handler) CreateReview(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.CreateReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	review, err := h.librarySvc.CreateReview(c.Request().Context(), p, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, review)
}

// UpdateReview godoc
// @Summary      Edit a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Param        request  body  model.UpdateReviewRequest  true  "request"
// @Success      200  {object}  model.Review
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /reviews/{id} [put]
func (h *Handler) UpdateReview(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req model.UpdateReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	review, err := h.librarySvc.UpdateReview(c.Request().Context(), p, id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, review)
}

// DeleteReview godoc
// @Summary      Delete a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Success      204  "OK"
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /reviews/{id} [delete]
func (h *Handler) DeleteReview(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteReview(c.Request().Context(), p, id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAllReviews godoc
// @Summary      All reviews
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Review
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/reviews [get]
func (h *Handler) GetAllReviews(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	reviews, err := h.librarySvc.ListReviews(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}
