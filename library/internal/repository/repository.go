package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
	"github.com/Astemirdum/bookshelf/pkg/postgres"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	GetBookForUpdate(ctx context.Context, id uuid.UUID) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	DecrementAvailable(ctx context.Context, bookID uuid.UUID) error
	IncrementAvailable(ctx context.Context, bookID uuid.UUID) error
	CountOutstanding(ctx context.Context, bookID uuid.UUID) (int, error)

	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id uuid.UUID) (model.Genre, error)
	CreateGenre(ctx context.Context, genre model.Genre) (model.Genre, error)
	UpdateGenre(ctx context.Context, genre model.Genre) (model.Genre, error)
	DeleteGenre(ctx context.Context, id uuid.UUID) error

	FindActiveBorrowing(ctx context.Context, userID, bookID uuid.UUID) (model.Borrowing, bool, error)
	CreateBorrowing(ctx context.Context, b model.Borrowing) (model.Borrowing, error)
	GetBorrowing(ctx context.Context, id uuid.UUID) (model.Borrowing, error)
	GetBorrowingForUpdate(ctx context.Context, id uuid.UUID) (model.Borrowing, error)
	SetBorrowingStatus(ctx context.Context, id uuid.UUID, status model.BorrowingStatus, at time.Time) (model.Borrowing, error)
	DeleteBorrowing(ctx context.Context, id uuid.UUID) error
	ListBorrowingsForUser(ctx context.Context, userID uuid.UUID) ([]model.Borrowing, error)
	ListBorrowings(ctx context.Context) ([]model.Borrowing, error)
	ListOverdue(ctx context.Context, now time.Time) ([]model.Borrowing, error)
	CountActiveBorrowings(ctx context.Context, userID uuid.UUID) (int, error)

	AddWishlistItem(ctx context.Context, item model.WishlistItem) (model.WishlistItem, bool, error)
	RemoveWishlistItem(ctx context.Context, userID, bookID uuid.UUID) error
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.Book, error)
	IsWishlisted(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	CountWishlist(ctx context.Context, userID uuid.UUID) (int, error)

	CreateReview(ctx context.Context, review model.Review) (model.Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (model.Review, error)
	UpdateReview(ctx context.Context, review model.Review) (model.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
	ListReviewsForBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error)
	ListReviews(ctx context.Context) ([]model.Review, error)

	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (model.User, error)
	SetUserRole(ctx context.Context, id uuid.UUID, role model.Role) (model.User, error)

	RecordEvent(ctx context.Context, event kafka.BorrowingEvent) error
	GetStats(ctx context.Context) (model.StatsInfo, error)
}

type repository struct {
	db  postgres.Pool
	tx  *postgres.TxRunner
	log *zap.Logger
}

var _ Repository = (*repository)(nil)

func NewRepository(db postgres.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		tx:  postgres.NewTxRunner(db),
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName      = `users`
	genresTableName     = `genres`
	booksTableName      = `books`
	borrowingsTableName = `borrowings`
	wishlistTableName   = `wishlist_items`
	reviewsTableName    = `reviews`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.tx.RunInTx(ctx, fn)
}

func (r *repository) conn(ctx context.Context) postgres.Querier {
	return postgres.Conn(ctx, r.db)
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

func outstandingStatuses() []string {
	return []string{string(model.StatusBorrowed), string(model.StatusOverdue)}
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.ForeignKeyViolation
}

func pgConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// mapForeignKeyViolation tells a missing user from a missing book by the
// violated constraint, e.g. borrowings_user_id_fkey.
func mapForeignKeyViolation(err error) error {
	if strings.HasSuffix(pgConstraint(err), "_user_id_fkey") {
		return errs.ErrUserNotFound
	}
	return errs.ErrBookNotFound
}

func isCheckViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.CheckViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
