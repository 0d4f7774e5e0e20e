package repository_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/library/internal/repository"
)

func newMockRepo(t *testing.T) (repository.Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	repo, err := repository.NewRepository(mock, zap.NewNop())
	require.NoError(t, err)
	return repo, mock
}

func TestRepository_DecrementAvailable(t *testing.T) {
	t.Parallel()

	bookID := uuid.New()
	tests := []struct {
		name    string
		result  pgconn.CommandTag
		wantErr error
	}{
		{name: "ok", result: pgxmock.NewResult("UPDATE", 1)},
		{name: "no copies left", result: pgxmock.NewResult("UPDATE", 0), wantErr: errs.ErrOutOfStock},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, mock := newMockRepo(t)
			mock.ExpectExec(regexp.QuoteMeta("set available_copies = available_copies - 1")).
				WillReturnResult(tt.result)

			err := repo.DecrementAvailable(context.Background(), bookID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRepository_IncrementAvailable(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("least(available_copies + 1, total_copies)")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.IncrementAvailable(context.Background(), uuid.New())
	require.ErrorIs(t, err, errs.ErrBookNotFound)
}

func TestRepository_GetBook_NotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM books b LEFT JOIN genres g on g.id = b.genre_id WHERE b.id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title"}))

	_, err := repo.GetBook(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrBookNotFound)
}

func TestRepository_CountOutstanding(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM borrowings WHERE book_id = $1 AND status IN ($2,$3)")).
		WithArgs(id, string(model.StatusBorrowed), string(model.StatusOverdue)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountOutstanding(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRepository_Genre(t *testing.T) {
	t.Parallel()

	t.Run("get", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockRepo(t)
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM genres WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(id, "Fantasy"))

		genre, err := repo.GetGenre(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, model.Genre{ID: id, Name: "Fantasy"}, genre)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO genres (id,name)")).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		_, err := repo.CreateGenre(context.Background(), model.Genre{ID: uuid.New(), Name: "Fantasy"})
		require.ErrorIs(t, err, errs.ErrGenreExists)
	})

	t.Run("delete missing", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM genres WHERE id = $1")).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		require.ErrorIs(t, repo.DeleteGenre(context.Background(), uuid.New()), errs.ErrGenreNotFound)
	})
}

func TestRepository_CreateBorrowing_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		code       string
		constraint string
		wantErr    error
	}{
		{name: "second active borrowing", code: pgerrcode.UniqueViolation, wantErr: errs.ErrAlreadyBorrowed},
		{name: "unknown book", code: pgerrcode.ForeignKeyViolation, constraint: "borrowings_book_id_fkey", wantErr: errs.ErrBookNotFound},
		{name: "unknown user", code: pgerrcode.ForeignKeyViolation, constraint: "borrowings_user_id_fkey", wantErr: errs.ErrUserNotFound},
		{name: "bad dates", code: pgerrcode.CheckViolation, wantErr: errs.ErrValidation},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO borrowings")).
				WillReturnError(&pgconn.PgError{Code: tt.code, ConstraintName: tt.constraint})

			_, err := repo.CreateBorrowing(context.Background(), model.Borrowing{
				ID:     uuid.New(),
				UserID: uuid.New(),
				BookID: uuid.New(),
				Status: model.StatusBorrowed,
			})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRepository_AddWishlistItem_UnknownUser(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wishlist_items")).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "wishlist_items_user_id_fkey"})

	_, _, err := repo.AddWishlistItem(context.Background(), model.WishlistItem{ID: uuid.New(), UserID: uuid.New(), BookID: uuid.New()})
	require.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestRepository_SetUserRole(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET role = $1 WHERE id = $2")).
		WithArgs(model.RoleAdmin, id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.SetUserRole(context.Background(), id, model.RoleAdmin)
	require.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestRepository_RunInTx(t *testing.T) {
	t.Parallel()

	t.Run("commit", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("available_copies - 1")).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := repo.RunInTx(context.Background(), func(ctx context.Context) error {
			return repo.DecrementAvailable(ctx, uuid.New())
		})
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("available_copies - 1")).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		err := repo.RunInTx(context.Background(), func(ctx context.Context) error {
			return repo.DecrementAvailable(ctx, uuid.New())
		})
		require.ErrorIs(t, err, errs.ErrOutOfStock)
	})

	t.Run("nested joins outer", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := repo.RunInTx(context.Background(), func(ctx context.Context) error {
			return repo.RunInTx(ctx, func(context.Context) error { return boom })
		})
		require.ErrorIs(t, err, boom)
	})
}
