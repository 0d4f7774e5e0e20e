package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

func (r *repository) ListGenres(ctx context.Context) ([]model.Genre, error) {
	query, args, err := qb.Select("id", "name").
		From(genresTableName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAll[model.Genre](rows)
}

func (r *repository) GetGenre(ctx context.Context, id uuid.UUID) (model.Genre, error) {
	query, args, err := qb.Select("id", "name").
		From(genresTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Genre{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Genre{}, err
	}
	defer rows.Close()

	return collectOne[model.Genre](rows, errs.ErrGenreNotFound)
}

func (r *repository) CreateGenre(ctx context.Context, genre model.Genre) (model.Genre, error) {
	query, args, err := qb.Insert(genresTableName).
		Columns("id", "name").
		Values(genre.ID, genre.Name).
		Suffix("RETURNING id, name").
		ToSql()
	if err != nil {
		return model.Genre{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Genre{}, mapGenreWriteError(err)
	}
	defer rows.Close()

	created, err := collectOne[model.Genre](rows, errs.ErrGenreNotFound)
	if err != nil {
		return model.Genre{}, mapGenreWriteError(err)
	}
	return created, nil
}

func (r *repository) UpdateGenre(ctx context.Context, genre model.Genre) (model.Genre, error) {
	query, args, err := qb.Update(genresTableName).
		Set("name", genre.Name).
		Where(sq.Eq{"id": genre.ID}).
		Suffix("RETURNING id, name").
		ToSql()
	if err != nil {
		return model.Genre{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Genre{}, mapGenreWriteError(err)
	}
	defer rows.Close()

	updated, err := collectOne[model.Genre](rows, errs.ErrGenreNotFound)
	if err != nil {
		return model.Genre{}, mapGenreWriteError(err)
	}
	return updated, nil
}

// DeleteGenre leaves the books in place; their genre_id becomes null.
func (r *repository) DeleteGenre(ctx context.Context, id uuid.UUID) error {
	query, args, err := qb.Delete(genresTableName).
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
		return errs.ErrGenreNotFound
	}
	return nil
}

func mapGenreWriteError(err error) error {
	if isUniqueViolation(err) {
		return errs.ErrGenreExists
	}
	return err
}
