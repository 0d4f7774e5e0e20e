package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

var reviewColumns = []string{"id", "user_id", "book_id", "rating", "comment", "created_at", "updated_at"}

func selectReviews() sq.SelectBuilder {
	cols := make([]string, 0, len(reviewColumns)+2)
	for _, c := range reviewColumns {
		cols = append(cols, "r."+c)
	}
	return qb.Select(append(cols, "u.name as user_name", "b.title as book_title")...).
		From(reviewsTableName + " r").
		Join(fmt.Sprintf("%s u on u.id = r.user_id", usersTableName)).
		Join(fmt.Sprintf("%s b on b.id = r.book_id", booksTableName))
}

func (r *repository) queryReviews(ctx context.Context, q sq.SelectBuilder) ([]model.Review, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAll[model.Review](rows)
}

func (r *repository) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	query, args, err := qb.Insert(reviewsTableName).
		Columns("id", "user_id", "book_id", "rating", "comment", "created_at", "updated_at").
		Values(review.ID, review.UserID, review.BookID, review.Rating, review.Comment, review.CreatedAt, review.UpdatedAt).
		Suffix("RETURNING " + joinColumns(reviewColumns)).
		ToSql()
	if err != nil {
		return model.Review{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Review{}, mapReviewWriteError(err)
	}
	defer rows.Close()

	created, err := collectOne[model.Review](rows, errs.ErrReviewNotFound)
	if err != nil {
		return model.Review{}, mapReviewWriteError(err)
	}
	return created, nil
}

func (r *repository) GetReview(ctx context.Context, id uuid.UUID) (model.Review, error) {
	query, args, err := selectReviews().
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return model.Review{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Review{}, err
	}
	defer rows.Close()

	return collectOne[model.Review](rows, errs.ErrReviewNotFound)
}

func (r *repository) UpdateReview(ctx context.Context, review model.Review) (model.Review, error) {
	query, args, err := qb.Update(reviewsTableName).
		Set("rating", review.Rating).
		Set("comment", review.Comment).
		Set("updated_at", review.UpdatedAt).
		Where(sq.Eq{"id": review.ID}).
		Suffix("RETURNING " + joinColumns(reviewColumns)).
		ToSql()
	if err != nil {
		return model.Review{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Review{}, mapReviewWriteError(err)
	}
	defer rows.Close()

	updated, err := collectOne[model.Review](rows, errs.ErrReviewNotFound)
	if err != nil {
		return model.Review{}, mapReviewWriteError(err)
	}
	return updated, nil
}

func (r *repository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	query, args, err := qb.Delete(reviewsTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrReviewNotFound
	}
	return nil
}

func (r *repository) ListReviewsForBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error) {
	return r.queryReviews(ctx, selectReviews().
		Where(sq.Eq{"r.book_id": bookID}).
		OrderBy("r.created_at desc", "r.id"))
}

func (r *repository) ListReviews(ctx context.Context) ([]model.Review, error) {
	return r.queryReviews(ctx, selectReviews().
		OrderBy("r.created_at desc", "r.id"))
}

func mapReviewWriteError(err error) error {
	switch {
	case isForeignKeyViolation(err):
		return mapForeignKeyViolation(err)
	case isCheckViolation(err):
		return errs.NewValidationError("rating", "must be between 1 and 5")
	}
	return err
}
