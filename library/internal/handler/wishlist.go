package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookshelf/library/internal/model"
)

// GetWishlist godoc
// @Summary      Wishlisted books
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Book
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /wishlist [get]
func (h *Handler) GetWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	books, err := h.librarySvc.ListWishlist(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// AddToWishlist godoc
// @Summary      Add to wishlist
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  model.WishlistRequest  true  "request"
// @Success      200  {object}  model.WishlistItem
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /wishlist [post]
func (h *Handler) AddToWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.WishlistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.librarySvc.AddToWishlist(c.Request().Context(), p, req.BookID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// IsWishlisted godoc
// @Summary      Is the book wishlisted
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookId  path  string  true  "id"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /wishlist/{bookId} [get]
func (h *Handler) IsWishlisted(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	bookID, err := uuidParam(c, "bookId")
	if err != nil {
		return err
	}
	ok, err := h.librarySvc.IsWishlisted(c.Request().Context(), p, bookID)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"wishlisted": ok})
}

// RemoveFromWishlist godoc
// @Summary      Remove from wishlist
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookId  path  string  true  "id"
// @Success      204  "OK"
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /wishlist/{bookId} [delete]
func (h *Handler) RemoveFromWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	bookID, err := uuidParam(c, "bookId")
	if err != nil {
		return err
	}
	if err := h.librarySvc.RemoveFromWishlist(c.Request().Context(), p, bookID); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
