package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

var wishlistColumns = []string{"id", "user_id", "book_id", "created_at"}

// AddWishlistItem is idempotent: an existing (user, book) pair is returned
// unchanged and the flag reports whether a new row was inserted.
func (r *repository) AddWishlistItem(ctx context.Context, item model.WishlistItem) (model.WishlistItem, bool, error) {
	query, args, err := qb.Insert(wishlistTableName).
		Columns("id", "user_id", "book_id").
		Values(item.ID, item.UserID, item.BookID).
		Suffix("ON CONFLICT (user_id, book_id) DO NOTHING RETURNING " + joinColumns(wishlistColumns)).
		ToSql()
	if err != nil {
		return model.WishlistItem{}, false, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.WishlistItem{}, false, mapWishlistWriteError(err)
	}
	defer rows.Close()

	created, err := collectOne[model.WishlistItem](rows, errs.ErrWishlistNotFound)
	switch {
	case err == nil:
		return created, true, nil
	case !errors.Is(err, errs.ErrWishlistNotFound):
		return model.WishlistItem{}, false, mapWishlistWriteError(err)
	}

	existing, err := r.getWishlistItem(ctx, item.UserID, item.BookID)
	if err != nil {
		return model.WishlistItem{}, false, err
	}
	return existing, false, nil
}

func (r *repository) getWishlistItem(ctx context.Context, userID, bookID uuid.UUID) (model.WishlistItem, error) {
	query, args, err := qb.Select(wishlistColumns...).
		From(wishlistTableName).
		Where(sq.Eq{"user_id": userID, "book_id": bookID}).
		ToSql()
	if err != nil {
		return model.WishlistItem{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.WishlistItem{}, err
	}
	defer rows.Close()

	return collectOne[model.WishlistItem](rows, errs.ErrWishlistNotFound)
}

func (r *repository) RemoveWishlistItem(ctx context.Context, userID, bookID uuid.UUID) error {
	query, args, err := qb.Delete(wishlistTableName).
		Where(sq.Eq{"user_id": userID, "book_id": bookID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrWishlistNotFound
	}
	return nil
}

func (r *repository) ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	query, args, err := selectBooks().
		Join(fmt.Sprintf("%s w on w.book_id = b.id", wishlistTableName)).
		Where(sq.Eq{"w.user_id": userID}).
		OrderBy("w.created_at desc", "b.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAll[model.Book](rows)
}

func (r *repository) IsWishlisted(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	const q = `select exists(select 1 from wishlist_items where user_id = $1 and book_id = $2)`

	var ok bool
	if err := r.conn(ctx).QueryRow(ctx, q, userID, bookID).Scan(&ok); err != nil {
		return false, errors.Wrap(err, "wishlist exists")
	}
	return ok, nil
}

func (r *repository) CountWishlist(ctx context.Context, userID uuid.UUID) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(wishlistTableName).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count wishlist")
	}
	return n, nil
}

func mapWishlistWriteError(err error) error {
	if isForeignKeyViolation(err) {
		return mapForeignKeyViolation(err)
	}
	return err
}
