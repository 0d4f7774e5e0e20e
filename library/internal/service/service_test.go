package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	repo_mocks "github.com/Astemirdum/bookshelf/library/internal/repository/mocks"
	"github.com/Astemirdum/bookshelf/library/internal/service"
	"github.com/Astemirdum/bookshelf/pkg/auth"
)

func ptr[T any](v T) *T { return &v }

func TestService_CreateBook(t *testing.T) {
	t.Parallel()

	t.Run("available defaults to total", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().CreateBook(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
				require.Equal(t, 3, b.TotalCopies)
				require.Equal(t, 3, b.AvailableCopies)
				require.Equal(t, "Dune", b.Title)
				return b, nil
			})

		_, err := svc.CreateBook(context.Background(), model.BookInput{Title: " Dune ", Author: "Herbert", ISBN: "1", TotalCopies: 3})
		require.NoError(t, err)
	})

	t.Run("available above total", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, testPolicy)
		_, err := svc.CreateBook(context.Background(), model.BookInput{Title: "Dune", TotalCopies: 1, AvailableCopies: ptr(2)})
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestService_UpdateBook(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	current := model.Book{ID: id, TotalCopies: 3, AvailableCopies: 1, EbookFile: ptr("old.pdf")}

	t.Run("recomputes available copies and drops the replaced ebook", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBookForUpdate(gomock.Any(), id).Return(current, nil)
		d.repo.EXPECT().CountOutstanding(gomock.Any(), id).Return(2, nil)
		d.repo.EXPECT().UpdateBook(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
				require.Equal(t, 5, b.TotalCopies)
				require.Equal(t, 3, b.AvailableCopies)
				return b, nil
			})
		d.files.EXPECT().Remove(gomock.Any(), "old.pdf").Return(nil)

		got, err := svc.UpdateBook(context.Background(), id, model.BookInput{Title: "t", TotalCopies: 5, EbookFile: ptr("new.pdf")})
		require.NoError(t, err)
		require.Equal(t, 3, got.AvailableCopies)
	})

	t.Run("total below outstanding", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBookForUpdate(gomock.Any(), id).Return(current, nil)
		d.repo.EXPECT().CountOutstanding(gomock.Any(), id).Return(2, nil)

		_, err := svc.UpdateBook(context.Background(), id, model.BookInput{Title: "t", TotalCopies: 1})
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestService_DeleteBook(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("blocked by outstanding borrowings", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBookForUpdate(gomock.Any(), id).Return(model.Book{ID: id}, nil)
		d.repo.EXPECT().CountOutstanding(gomock.Any(), id).Return(1, nil)

		require.ErrorIs(t, svc.DeleteBook(context.Background(), id), errs.ErrBookHasActiveBorrowings)
	})

	t.Run("deletes and releases the ebook", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBookForUpdate(gomock.Any(), id).Return(model.Book{ID: id}, nil)
		d.repo.EXPECT().CountOutstanding(gomock.Any(), id).Return(0, nil)
		d.repo.EXPECT().DeleteBook(gomock.Any(), id).Return(model.Book{ID: id, EbookFile: ptr("book.pdf")}, nil)
		d.files.EXPECT().Remove(gomock.Any(), "book.pdf").Return(errors.New("disk"))

		require.NoError(t, svc.DeleteBook(context.Background(), id))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBookForUpdate(gomock.Any(), id).Return(model.Book{}, errs.ErrBookNotFound)

		require.ErrorIs(t, svc.DeleteBook(context.Background(), id), errs.ErrNotFound)
	})
}

func TestService_Genres(t *testing.T) {
	t.Parallel()

	svc, d := newTestService(t, testPolicy)
	_, err := svc.CreateGenre(context.Background(), "  ")
	require.ErrorIs(t, err, errs.ErrValidation)

	d.repo.EXPECT().CreateGenre(gomock.Any(), gomock.Any()).Return(model.Genre{}, errs.ErrGenreExists)
	_, err = svc.CreateGenre(context.Background(), "Fantasy")
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestService_AddToWishlist(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	bookID := uuid.New()
	existing := model.WishlistItem{ID: uuid.New(), UserID: user.UserID, BookID: bookID}

	t.Run("repeated add is a no-op", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().AddWishlistItem(gomock.Any(), gomock.Any()).Return(existing, false, nil)

		got, err := svc.AddToWishlist(context.Background(), user, bookID)
		require.NoError(t, err)
		require.Equal(t, existing.ID, got.ID)
	})

	t.Run("strict policy rejects repeated add", func(t *testing.T) {
		t.Parallel()
		policy := testPolicy
		policy.WishlistStrict = true
		svc, d := newTestService(t, policy)
		d.repo.EXPECT().AddWishlistItem(gomock.Any(), gomock.Any()).Return(existing, false, nil)

		_, err := svc.AddToWishlist(context.Background(), user, bookID)
		require.ErrorIs(t, err, errs.ErrAlreadyWishlisted)
	})

	t.Run("unknown book", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().AddWishlistItem(gomock.Any(), gomock.Any()).Return(model.WishlistItem{}, false, errs.ErrBookNotFound)

		_, err := svc.AddToWishlist(context.Background(), user, bookID)
		require.ErrorIs(t, err, errs.ErrBookNotFound)
	})
}

func TestService_Reviews(t *testing.T) {
	t.Parallel()

	owner := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	stranger := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	admin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	review := model.Review{ID: uuid.New(), UserID: owner.UserID, BookID: uuid.New(), Rating: 3}

	t.Run("rating out of range", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, testPolicy)
		for _, rating := range []int{0, 6, -1} {
			_, err := svc.CreateReview(context.Background(), owner, model.CreateReviewRequest{BookID: review.BookID, Rating: rating})
			require.ErrorIs(t, err, errs.ErrValidation)
		}
	})

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().CreateReview(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r model.Review) (model.Review, error) {
				require.Equal(t, owner.UserID, r.UserID)
				require.Equal(t, "great", r.Comment)
				require.Equal(t, testNow, r.CreatedAt)
				return r, nil
			})
		_, err := svc.CreateReview(context.Background(), owner, model.CreateReviewRequest{BookID: review.BookID, Rating: 5, Comment: " great "})
		require.NoError(t, err)
	})

	t.Run("stranger cannot update", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetReview(gomock.Any(), review.ID).Return(review, nil)
		_, err := svc.UpdateReview(context.Background(), stranger, review.ID, model.UpdateReviewRequest{Rating: 1})
		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("admin deletes foreign review", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetReview(gomock.Any(), review.ID).Return(review, nil)
		d.repo.EXPECT().DeleteReview(gomock.Any(), review.ID).Return(nil)
		require.NoError(t, svc.DeleteReview(context.Background(), admin, review.ID))
	})

	t.Run("owner updates", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetReview(gomock.Any(), review.ID).Return(review, nil)
		d.repo.EXPECT().UpdateReview(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r model.Review) (model.Review, error) { return r, nil })
		got, err := svc.UpdateReview(context.Background(), owner, review.ID, model.UpdateReviewRequest{Rating: 4, Comment: "better"})
		require.NoError(t, err)
		require.Equal(t, 4, got.Rating)
		require.Equal(t, testNow, got.UpdatedAt)
	})

	t.Run("list for unknown book", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBook(gomock.Any(), review.BookID).Return(model.Book{}, errs.ErrBookNotFound)
		_, err := svc.ListReviewsForBook(context.Background(), review.BookID)
		require.ErrorIs(t, err, errs.ErrBookNotFound)
	})
}

func TestService_Authorize(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.User{ID: uuid.New(), Email: "reader@example.com", PasswordHash: string(hash), Role: model.RoleUser}
	issuer, err := auth.NewIssuer("test-secret", 24*time.Hour)
	require.NoError(t, err)

	newSvc := func(t *testing.T) (*service.Service, *repo_mocks.MockRepository) {
		ctrl := gomock.NewController(t)
		repo := repo_mocks.NewMockRepository(ctrl)
		return service.NewService(repo, zap.NewNop(), testPolicy,
			service.WithIssuer(issuer),
			service.WithClock(time.Now),
		), repo
	}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSvc(t)
		repo.EXPECT().GetUserByEmail(gomock.Any(), user.Email).Return(user, nil)

		resp, err := svc.Authorize(context.Background(), model.AuthRequest{Email: user.Email, Password: "secret-pass"})
		require.NoError(t, err)
		require.Equal(t, 24*60*60, resp.ExpiresIn)

		claims, err := issuer.Parse(resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID.String(), claims.Profile.UserID)
		require.Equal(t, auth.RoleUser, claims.Profile.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSvc(t)
		repo.EXPECT().GetUserByEmail(gomock.Any(), user.Email).Return(user, nil)

		_, err := svc.Authorize(context.Background(), model.AuthRequest{Email: user.Email, Password: "nope"})
		require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		svc, repo := newSvc(t)
		repo.EXPECT().GetUserByEmail(gomock.Any(), "ghost@example.com").Return(model.User{}, errs.ErrUserNotFound)

		_, err := svc.Authorize(context.Background(), model.AuthRequest{Email: "ghost@example.com", Password: "x"})
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	svc, d := newTestService(t, testPolicy)
	d.repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u model.User) (model.User, error) {
			require.Equal(t, model.RoleUser, u.Role)
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password1")))
			return u, nil
		})

	u, err := svc.Register(context.Background(), model.UserCreateRequest{Email: "a@b.c", Password: "password1", Name: "Ann"})
	require.NoError(t, err)
	require.Equal(t, "Ann", u.Name)
}

func TestService_EnsureAdmin(t *testing.T) {
	t.Parallel()

	req := model.UserCreateRequest{Email: " admin@example.com ", Password: "admin-pass"}

	t.Run("creates admin with hashed password", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetUserByEmail(gomock.Any(), "admin@example.com").Return(model.User{}, errs.ErrUserNotFound)
		d.repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u model.User) (model.User, error) {
				require.Equal(t, model.RoleAdmin, u.Role)
				require.Equal(t, "admin@example.com", u.Email)
				require.Equal(t, "Administrator", u.Name)
				require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin-pass")))
				return u, nil
			})

		u, err := svc.EnsureAdmin(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, model.RoleAdmin, u.Role)
	})

	t.Run("promotes existing user", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		existing := model.User{ID: uuid.New(), Email: "admin@example.com", Role: model.RoleUser}
		d.repo.EXPECT().GetUserByEmail(gomock.Any(), "admin@example.com").Return(existing, nil)
		promoted := existing
		promoted.Role = model.RoleAdmin
		d.repo.EXPECT().SetUserRole(gomock.Any(), existing.ID, model.RoleAdmin).Return(promoted, nil)

		u, err := svc.EnsureAdmin(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, model.RoleAdmin, u.Role)
	})

	t.Run("already admin", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		existing := model.User{ID: uuid.New(), Email: "admin@example.com", Role: model.RoleAdmin}
		d.repo.EXPECT().GetUserByEmail(gomock.Any(), "admin@example.com").Return(existing, nil)

		u, err := svc.EnsureAdmin(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, existing, u)
	})

	t.Run("new admin needs a password", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetUserByEmail(gomock.Any(), "admin@example.com").Return(model.User{}, errs.ErrUserNotFound)

		_, err := svc.EnsureAdmin(context.Background(), model.UserCreateRequest{Email: req.Email})
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("empty email", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, testPolicy)
		_, err := svc.EnsureAdmin(context.Background(), model.UserCreateRequest{Password: "x"})
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestService_UserStats(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: uuid.New(), Role: model.RoleUser}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().CountActiveBorrowings(gomock.Any(), user.UserID).Return(2, nil)
		d.repo.EXPECT().CountWishlist(gomock.Any(), user.UserID).Return(5, nil)

		got, err := svc.UserStats(context.Background(), user)
		require.NoError(t, err)
		require.Equal(t, model.UserStats{BorrowedBooks: 2, WishlistCount: 5}, got)
	})

	t.Run("one query fails", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		dbErr := errors.New("db down")
		d.repo.EXPECT().CountActiveBorrowings(gomock.Any(), user.UserID).Return(0, dbErr)
		d.repo.EXPECT().CountWishlist(gomock.Any(), user.UserID).Return(5, nil).AnyTimes()

		_, err := svc.UserStats(context.Background(), user)
		require.ErrorIs(t, err, dbErr)
	})
}

func TestService_GetStats(t *testing.T) {
	t.Parallel()

	svc, d := newTestService(t, testPolicy)
	_, err := svc.GetStats(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RoleUser})
	require.ErrorIs(t, err, errs.ErrForbidden)

	d.repo.EXPECT().GetStats(gomock.Any()).Return(model.StatsInfo{Data: []model.Stats{{Borrowed: 1}}}, nil)
	got, err := svc.GetStats(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
}
