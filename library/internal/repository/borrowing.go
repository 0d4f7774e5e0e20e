package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

func borrowingColumns(alias string) []string {
	cols := []string{"id", "user_id", "book_id", "status", "borrow_date", "due_date", "return_date"}
	if alias == "" {
		return cols
	}
	for i := range cols {
		cols[i] = alias + "." + cols[i]
	}
	return cols
}

func selectBorrowings() sq.SelectBuilder {
	return qb.Select(append(borrowingColumns("br"), "b.title as book_title", "u.name as user_name")...).
		From(borrowingsTableName + " br").
		Join(fmt.Sprintf("%s b on b.id = br.book_id", booksTableName)).
		Join(fmt.Sprintf("%s u on u.id = br.user_id", usersTableName))
}

func (r *repository) queryBorrowings(ctx context.Context, q sq.SelectBuilder) ([]model.Borrowing, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAll[model.Borrowing](rows)
}

// FindActiveBorrowing looks up the outstanding borrowing of bookID by userID, if any.
func (r *repository) FindActiveBorrowing(ctx context.Context, userID, bookID uuid.UUID) (model.Borrowing, bool, error) {
	query, args, err := qb.Select(borrowingColumns("")...).
		From(borrowingsTableName).
		Where(sq.Eq{"user_id": userID, "book_id": bookID, "status": outstandingStatuses()}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Borrowing{}, false, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Borrowing{}, false, err
	}
	defer rows.Close()

	b, err := collectOne[model.Borrowing](rows, errs.ErrBorrowingNotFound)
	if err != nil {
		if errors.Is(err, errs.ErrBorrowingNotFound) {
			return model.Borrowing{}, false, nil
		}
		return model.Borrowing{}, false, err
	}
	return b, true, nil
}

func (r *repository) CreateBorrowing(ctx context.Context, b model.Borrowing) (model.Borrowing, error) {
	query, args, err := qb.Insert(borrowingsTableName).
		Columns(borrowingColumns("")...).
		Values(b.ID, b.UserID, b.BookID, b.Status, b.BorrowDate, b.DueDate, b.ReturnDate).
		Suffix("RETURNING " + joinColumns(borrowingColumns(""))).
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Borrowing{}, mapBorrowingWriteError(err)
	}
	defer rows.Close()

	created, err := collectOne[model.Borrowing](rows, errs.ErrBorrowingNotFound)
	if err != nil {
		return model.Borrowing{}, mapBorrowingWriteError(err)
	}
	return created, nil
}

func (r *repository) GetBorrowing(ctx context.Context, id uuid.UUID) (model.Borrowing, error) {
	query, args, err := selectBorrowings().
		Where(sq.Eq{"br.id": id}).
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Borrowing{}, err
	}
	defer rows.Close()

	return collectOne[model.Borrowing](rows, errs.ErrBorrowingNotFound)
}

// GetBorrowingForUpdate locks the borrowing row until the surrounding transaction ends.
func (r *repository) GetBorrowingForUpdate(ctx context.Context, id uuid.UUID) (model.Borrowing, error) {
	query, args, err := qb.Select(borrowingColumns("")...).
		From(borrowingsTableName).
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Borrowing{}, err
	}
	defer rows.Close()

	return collectOne[model.Borrowing](rows, errs.ErrBorrowingNotFound)
}

// SetBorrowingStatus moves the borrowing to status. RETURNED also stamps return_date with at.
func (r *repository) SetBorrowingStatus(ctx context.Context, id uuid.UUID, status model.BorrowingStatus, at time.Time) (model.Borrowing, error) {
	q := qb.Update(borrowingsTableName).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(borrowingColumns("")))
	if status == model.StatusReturned {
		q = q.Set("return_date", at)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Borrowing{}, mapBorrowingWriteError(err)
	}
	defer rows.Close()

	updated, err := collectOne[model.Borrowing](rows, errs.ErrBorrowingNotFound)
	if err != nil {
		return model.Borrowing{}, mapBorrowingWriteError(err)
	}
	return updated, nil
}

func (r *repository) DeleteBorrowing(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `delete from borrowings where id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrBorrowingNotFound
	}
	return nil
}

func (r *repository) ListBorrowingsForUser(ctx context.Context, userID uuid.UUID) ([]model.Borrowing, error) {
	return r.queryBorrowings(ctx, selectBorrowings().
		Where(sq.Eq{"br.user_id": userID}).
		OrderBy("br.borrow_date desc", "br.id"))
}

func (r *repository) ListBorrowings(ctx context.Context) ([]model.Borrowing, error) {
	return r.queryBorrowings(ctx, selectBorrowings().
		OrderBy("br.borrow_date desc", "br.id"))
}

// ListOverdue returns outstanding borrowings whose due date is before now,
// together with the ones already flagged OVERDUE.
func (r *repository) ListOverdue(ctx context.Context, now time.Time) ([]model.Borrowing, error) {
	return r.queryBorrowings(ctx, selectBorrowings().
		Where(sq.Or{
			sq.Eq{"br.status": model.StatusOverdue},
			sq.And{
				sq.Eq{"br.status": model.StatusBorrowed},
				sq.Lt{"br.due_date": now},
			},
		}).
		OrderBy("br.due_date", "br.id"))
}

func (r *repository) CountActiveBorrowings(ctx context.Context, userID uuid.UUID) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"user_id": userID, "status": outstandingStatuses()}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count active borrowings")
	}
	return n, nil
}

func mapBorrowingWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return errs.ErrAlreadyBorrowed
	case isForeignKeyViolation(err):
		return mapForeignKeyViolation(err)
	case isCheckViolation(err):
		return errs.NewValidationError("returnDate", "must not precede borrowDate")
	}
	return err
}
