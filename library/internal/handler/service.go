package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/library/internal/service"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	GetBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error)
	CreateBook(ctx context.Context, in model.BookInput) (model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error

	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id uuid.UUID) (model.Genre, error)
	CreateGenre(ctx context.Context, name string) (model.Genre, error)
	UpdateGenre(ctx context.Context, id uuid.UUID, name string) (model.Genre, error)
	DeleteGenre(ctx context.Context, id uuid.UUID) error

	Borrow(ctx context.Context, p model.Principal, req model.CreateBorrowingRequest) (model.Borrowing, error)
	Return(ctx context.Context, p model.Principal, borrowingID uuid.UUID) (model.Borrowing, error)
	DeleteBorrowing(ctx context.Context, p model.Principal, borrowingID uuid.UUID) error
	UpdateBorrowingStatus(ctx context.Context, p model.Principal, borrowingID uuid.UUID, status model.BorrowingStatus) (model.Borrowing, error)
	GetBorrowing(ctx context.Context, p model.Principal, borrowingID uuid.UUID) (model.Borrowing, error)
	ListBorrowings(ctx context.Context, p model.Principal) ([]model.Borrowing, error)
	BorrowingHistory(ctx context.Context, p model.Principal) ([]model.Borrowing, error)
	ListAllBorrowings(ctx context.Context, p model.Principal) ([]model.Borrowing, error)
	ListOverdue(ctx context.Context, p model.Principal) ([]model.Borrowing, error)

	AddToWishlist(ctx context.Context, p model.Principal, bookID uuid.UUID) (model.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, p model.Principal, bookID uuid.UUID) error
	ListWishlist(ctx context.Context, p model.Principal) ([]model.Book, error)
	IsWishlisted(ctx context.Context, p model.Principal, bookID uuid.UUID) (bool, error)

	CreateReview(ctx context.Context, p model.Principal, req model.CreateReviewRequest) (model.Review, error)
	UpdateReview(ctx context.Context, p model.Principal, id uuid.UUID, req model.UpdateReviewRequest) (model.Review, error)
	DeleteReview(ctx context.Context, p model.Principal, id uuid.UUID) error
	ListReviewsForBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error)
	ListReviews(ctx context.Context, p model.Principal) ([]model.Review, error)

	Register(ctx context.Context, req model.UserCreateRequest) (model.User, error)
	Authorize(ctx context.Context, req model.AuthRequest) (model.AuthResponse, error)
	GetProfile(ctx context.Context, p model.Principal) (model.User, error)
	UpdateProfile(ctx context.Context, p model.Principal, req model.UpdateProfileRequest) (model.User, error)
	UserStats(ctx context.Context, p model.Principal) (model.UserStats, error)

	GetStats(ctx context.Context, p model.Principal) (model.StatsInfo, error)
}

type StatsRecorder interface {
	RecordEvent(ctx context.Context, event kafka.BorrowingEvent) error
}

var (
	_ LibraryService = (*service.Service)(nil)
	_ StatsRecorder  = (*service.Service)(nil)
)
