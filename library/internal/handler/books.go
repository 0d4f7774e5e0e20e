package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookshelf/library/internal/model"
)

// GetBooks godoc
// @Summary      List books
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        title  query  string  false  "title"
// @Param        author  query  string  false  "author"
// @Param        genre  query  string  false  "genre"
// @Param        page  query  integer  false  "page"
// @Param        size  query  integer  false  "size"
// @Success      200  {object}  model.ListBooks
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /books [get]
func (h *Handler) GetBooks(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		err    error
		filter = model.BookFilter{
			Title:  c.QueryParam("title"),
			Author: c.QueryParam("author"),
			Genre:  c.QueryParam("genre"),
		}
	)
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if filter.Page, err = strconv.Atoi(pageParam); err != nil || filter.Page < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if filter.Size, err = strconv.Atoi(sizeParam); err != nil || filter.Size < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}

	books, err := h.librarySvc.ListBooks(ctx, filter)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary      Get book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "id"
// @Success      200  {object}  model.Book
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	book, err := h.librarySvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// CreateBook godoc
// @Summary      Create book
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  model.BookInput  true  "request"
// @Success      201  {object}  model.Book
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary      Update book
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Param        request  body  model.BookInput  true  "request"
// @Success      200  {object}  model.Book
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req model.BookInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary      Delete book
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
// @Router       /admin/books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteBook(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetGenres godoc
// @Summary      List genres
// @Tags         genres
// @Accept       json
// @Produce      json
// @Success      200  {array}  model.Genre
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /genres [get]
func (h *Handler) GetGenres(c echo.Context) error {
	genres, err := h.librarySvc.ListGenres(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, genres)
}

// GetGenre godoc
// @Summary      Get genre
// @Tags         genres
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "id"
// @Success      200  {object}  model.Genre
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /genres/{id} [get]
func (h *Handler) GetGenre(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	genre, err := h.librarySvc.GetGenre(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, genre)
}

type genreRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateGenre godoc
// @Summary      Create genre
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  model.Genre
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/genres [post]
func (h *Handler) CreateGenre(c echo.Context) error {
	var req genreRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	genre, err := h.librarySvc.CreateGenre(c.Request().Context(), req.Name)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, genre)
}

// UpdateGenre godoc
// @Summary      Rename genre
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "id"
// @Success      200  {object}  model.Genre
// @Failure      400  {object}  errs.ErrorResponse
// @Failure      401  {object}  errs.ErrorResponse
// @Failure      404  {object}  errs.ErrorResponse
// @Failure      409  {object}  errs.ErrorResponse
// @Router       /admin/genres/{id} [put]
func (h *Handler) UpdateGenre(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req genreRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	genre, err := h.librarySvc.UpdateGenre(c.Request().Context(), id, req.Name)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, genre)
}

// DeleteGenre godoc
// @Summary      Delete genre
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
// @Router       /admin/genres/{id} [delete]
func (h *Handler) DeleteGenre(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteGenre(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
