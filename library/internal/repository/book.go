package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

func bookColumns(alias string) []string {
	cols := []string{"id", "title", "author", "isbn", "publication_year", "publisher",
		"description", "language", "page_count", "genre_id", "total_copies",
		"available_copies", "ebook_file", "created_at"}
	if alias == "" {
		return cols
	}
	for i := range cols {
		cols[i] = alias + "." + cols[i]
	}
	return cols
}

func selectBooks() sq.SelectBuilder {
	return qb.Select(append(bookColumns("b"), "g.name as genre_name")...).
		From(booksTableName + " b").
		LeftJoin(fmt.Sprintf("%s g on g.id = b.genre_id", genresTableName))
}

func collectOne[T any](rows pgx.Rows, notFound error) (T, error) {
	v, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if isNoRows(err) {
			return v, notFound
		}
		return v, errors.Wrap(err, "pgx.CollectOneRow")
	}
	return v, nil
}

func collectAll[T any](rows pgx.Rows) ([]T, error) {
	items, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return items, nil
}

func (r *repository) GetBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	query, args, err := selectBooks().
		Where(sq.Eq{"b.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	defer rows.Close()

	return collectOne[model.Book](rows, errs.ErrBookNotFound)
}

// GetBookForUpdate locks the book row until the surrounding transaction ends.
func (r *repository) GetBookForUpdate(ctx context.Context, id uuid.UUID) (model.Book, error) {
	query, args, err := qb.Select(bookColumns("")...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	defer rows.Close()

	return collectOne[model.Book](rows, errs.ErrBookNotFound)
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error) {
	q := selectBooks().OrderBy("b.title", "b.id")

	if filter.Title != "" {
		q = q.Where(sq.ILike{"b.title": "%" + filter.Title + "%"})
	}
	if filter.Author != "" {
		q = q.Where(sq.ILike{"b.author": "%" + filter.Author + "%"})
	}
	if filter.Genre != "" {
		q = q.Where(sq.ILike{"g.name": filter.Genre})
	}
	if filter.Page != 0 && filter.Size != 0 {
		q = q.Limit(uint64(filter.Size)).Offset(uint64((filter.Page - 1) * filter.Size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.ListBooks{}, err
	}
	defer rows.Close()

	books, err := collectAll[model.Book](rows)
	if err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          filter.Page,
			PageSize:      filter.Size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

func bookValues(book model.Book) map[string]any {
	return map[string]any{
		"title":            book.Title,
		"author":           book.Author,
		"isbn":             book.ISBN,
		"publication_year": book.PublicationYear,
		"publisher":        book.Publisher,
		"description":      book.Description,
		"language":         book.Language,
		"page_count":       book.PageCount,
		"genre_id":         book.GenreID,
		"total_copies":     book.TotalCopies,
		"available_copies": book.AvailableCopies,
		"ebook_file":       book.EbookFile,
	}
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	values := bookValues(book)
	values["id"] = book.ID

	query, args, err := qb.Insert(booksTableName).
		SetMap(values).
		Suffix("RETURNING " + joinColumns(bookColumns(""))).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, mapBookWriteError(err)
	}
	defer rows.Close()

	created, err := collectOne[model.Book](rows, errs.ErrBookNotFound)
	if err != nil {
		return model.Book{}, mapBookWriteError(err)
	}
	return created, nil
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(bookValues(book)).
		Where(sq.Eq{"id": book.ID}).
		Suffix("RETURNING " + joinColumns(bookColumns(""))).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, mapBookWriteError(err)
	}
	defer rows.Close()

	updated, err := collectOne[model.Book](rows, errs.ErrBookNotFound)
	if err != nil {
		return model.Book{}, mapBookWriteError(err)
	}
	return updated, nil
}

// DeleteBook removes the book and returns the deleted row so the caller can release its files.
func (r *repository) DeleteBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(bookColumns(""))).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	defer rows.Close()

	return collectOne[model.Book](rows, errs.ErrBookNotFound)
}

// DecrementAvailable takes one copy only while at least one is left.
func (r *repository) DecrementAvailable(ctx context.Context, bookID uuid.UUID) error {
	const q = `
update books
    set available_copies = available_copies - 1
where id = @book_id and available_copies > 0`

	tag, err := r.conn(ctx).Exec(ctx, q, pgx.NamedArgs{"book_id": bookID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrOutOfStock
	}
	return nil
}

// IncrementAvailable gives one copy back, never exceeding total_copies.
func (r *repository) IncrementAvailable(ctx context.Context, bookID uuid.UUID) error {
	const q = `
update books
    set available_copies = least(available_copies + 1, total_copies)
where id = @book_id`

	tag, err := r.conn(ctx).Exec(ctx, q, pgx.NamedArgs{"book_id": bookID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (r *repository) CountOutstanding(ctx context.Context, bookID uuid.UUID) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"book_id": bookID}).
		Where(sq.Eq{"status": outstandingStatuses()}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count outstanding")
	}
	return n, nil
}

func mapBookWriteError(err error) error {
	switch {
	case isForeignKeyViolation(err):
		return errs.ErrGenreNotFound
	case isCheckViolation(err):
		return errs.NewValidationError("availableCopies", "must be between 0 and totalCopies")
	}
	return err
}
