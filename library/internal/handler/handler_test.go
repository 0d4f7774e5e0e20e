package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/handler"
	service_mocks "github.com/Astemirdum/bookshelf/library/internal/handler/mocks"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/pkg/auth"
)

var (
	userID  = uuid.MustParse("1b7c0c57-0b0b-4c3e-8c55-52a4a1f2f0d1")
	adminID = uuid.MustParse("9e1d0a55-3f0e-4b8f-8d7c-6a5b4c3d2e1f")
	bookID  = uuid.MustParse("f4f9a1c2-5e3d-4a7b-9c1d-2e3f4a5b6c7d")
	loanID  = uuid.MustParse("8d6f3a4e-8a6f-4b51-9d7e-0c1f1c3c2b10")

	borrowDate = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

type response struct {
	expectedCode int
	expectedBody string
}

func newRouter(t *testing.T) (*echo.Echo, *service_mocks.MockLibraryService, *auth.Issuer) {
	t.Helper()
	c := gomock.NewController(t)
	svc := service_mocks.NewMockLibraryService(c)
	issuer, err := auth.NewIssuer("handler-test-secret", time.Hour)
	require.NoError(t, err)
	h := handler.New(svc, issuer, zap.NewExample().Named("test"))
	return h.NewRouter(), svc, issuer
}

func bearer(t *testing.T, issuer *auth.Issuer, id uuid.UUID, role model.Role) string {
	t.Helper()
	token, _, err := issuer.Issue(id.String(), string(role), "reader@example.com", time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func do(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, http.NoBody)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		r.Header.Set(echo.HeaderAuthorization, token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func assertResponse(t *testing.T, want response, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want.expectedCode, w.Code)
	if want.expectedBody != "" {
		require.Equal(t, want.expectedBody, strings.Trim(w.Body.String(), "\n"))
	}
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	e, _, _ := newRouter(t)
	w := do(e, http.MethodGet, "/manage/health", "", "")
	assertResponse(t, response{expectedCode: http.StatusOK, expectedBody: "OK"}, w)
}

func TestHandler_CreateBorrowing(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: userID, Role: model.RoleUser}
	type mockBehavior func(r *service_mocks.MockLibraryService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		body         string
		withToken    bool
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(gomock.Any(), user, model.CreateBorrowingRequest{BookID: bookID}).
					Return(model.Borrowing{
						ID:         loanID,
						UserID:     userID,
						BookID:     bookID,
						Status:     model.StatusBorrowed,
						BorrowDate: borrowDate,
						DueDate:    borrowDate.Add(7 * 24 * time.Hour),
					}, nil)
			},
			body:      fmt.Sprintf(`{"bookId":%q}`, bookID),
			withToken: true,
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: fmt.Sprintf(`{"id":%q,"userId":%q,"bookId":%q,"status":"BORROWED","borrowDate":"2024-03-01T12:00:00Z","dueDate":"2024-03-08T12:00:00Z","returnDate":null,"overdue":false}`, loanID, userID, bookID),
			},
		},
		{
			name: "err. out of stock",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(gomock.Any(), user, model.CreateBorrowingRequest{BookID: bookID}).
					Return(model.Borrowing{}, errs.ErrOutOfStock)
			},
			body:      fmt.Sprintf(`{"bookId":%q}`, bookID),
			withToken: true,
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"conflict: no copies available"}`,
			},
		},
		{
			name: "err. book not found",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(gomock.Any(), user, model.CreateBorrowingRequest{BookID: bookID}).
					Return(model.Borrowing{}, errs.ErrBookNotFound)
			},
			body:      fmt.Sprintf(`{"bookId":%q}`, bookID),
			withToken: true,
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
		},
		{
			name: "err. bad due date",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(gomock.Any(), user, gomock.Any()).
					Return(model.Borrowing{}, errs.NewValidationError("dueDate", "must be in the future"))
			},
			body:      fmt.Sprintf(`{"bookId":%q,"dueDate":"2020-01-01T00:00:00Z"}`, bookID),
			withToken: true,
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"must be in the future","field":"dueDate"}`,
			},
		},
		{
			name:         "err. book id required",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			body:         `{}`,
			withToken:    true,
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
		{
			name:         "err. no token",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			body:         fmt.Sprintf(`{"bookId":%q}`, bookID),
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"No Authorization Header"}`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(gomock.Any(), user, model.CreateBorrowingRequest{BookID: bookID}).
					Return(model.Borrowing{}, errors.New("db internal"))
			},
			body:      fmt.Sprintf(`{"bookId":%q}`, bookID),
			withToken: true,
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc, issuer := newRouter(t)
			tt.mockBehavior(svc)

			token := ""
			if tt.withToken {
				token = bearer(t, issuer, userID, model.RoleUser)
			}
			w := do(e, http.MethodPost, "/api/v1/borrowings", token, tt.body)
			assertResponse(t, tt.response, w)
		})
	}
}

func TestHandler_ReturnBorrowing(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: userID, Role: model.RoleUser}
	returnedAt := borrowDate.Add(48 * time.Hour)

	var tests = []struct {
		name         string
		mockBehavior func(r *service_mocks.MockLibraryService)
		id           string
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Return(gomock.Any(), user, loanID).Return(model.Borrowing{
					ID:         loanID,
					UserID:     userID,
					BookID:     bookID,
					Status:     model.StatusReturned,
					BorrowDate: borrowDate,
					DueDate:    borrowDate.Add(7 * 24 * time.Hour),
					ReturnDate: &returnedAt,
				}, nil)
			},
			id: loanID.String(),
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: fmt.Sprintf(`{"id":%q,"userId":%q,"bookId":%q,"status":"RETURNED","borrowDate":"2024-03-01T12:00:00Z","dueDate":"2024-03-08T12:00:00Z","returnDate":"2024-03-03T12:00:00Z","overdue":false}`, loanID, userID, bookID),
			},
		},
		{
			name: "err. foreign borrowing",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Return(gomock.Any(), user, loanID).Return(model.Borrowing{}, errs.ErrForbidden)
			},
			id: loanID.String(),
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"message":"forbidden"}`,
			},
		},
		{
			name: "err. already returned",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Return(gomock.Any(), user, loanID).Return(model.Borrowing{}, errs.ErrAlreadyReturned)
			},
			id: loanID.String(),
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"conflict: borrowing is already returned"}`,
			},
		},
		{
			name:         "err. bad id",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			id:           "42",
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"id is invalid"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc, issuer := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodPost, "/api/v1/borrowings/"+tt.id+"/return", bearer(t, issuer, userID, model.RoleUser), "")
			assertResponse(t, tt.response, w)
		})
	}
}

func TestHandler_AdminRoutes(t *testing.T) {
	t.Parallel()

	admin := model.Principal{UserID: adminID, Role: model.RoleAdmin}

	var tests = []struct {
		name         string
		mockBehavior func(r *service_mocks.MockLibraryService)
		method       string
		target       string
		role         model.Role
		response     response
	}{
		{
			name:         "err. user on admin route",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			method:       http.MethodGet,
			target:       "/api/v1/admin/borrowings",
			role:         model.RoleUser,
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"message":"no admin"}`,
			},
		},
		{
			name: "list borrowings",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ListAllBorrowings(gomock.Any(), admin).Return([]model.Borrowing{}, nil)
			},
			method: http.MethodGet,
			target: "/api/v1/admin/borrowings",
			role:   model.RoleAdmin,
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[]`,
			},
		},
		{
			name: "delete borrowing",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBorrowing(gomock.Any(), admin, loanID).Return(nil)
			},
			method: http.MethodDelete,
			target: "/api/v1/admin/borrowings/" + loanID.String(),
			role:   model.RoleAdmin,
			response: response{
				expectedCode: http.StatusNoContent,
			},
		},
		{
			name: "delete book with copies out",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(gomock.Any(), bookID).Return(errs.ErrBookHasActiveBorrowings)
			},
			method: http.MethodDelete,
			target: "/api/v1/admin/books/" + bookID.String(),
			role:   model.RoleAdmin,
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"conflict: book has active borrowings"}`,
			},
		},
		{
			name: "stats",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().GetStats(gomock.Any(), admin).Return(model.StatsInfo{Data: []model.Stats{}}, nil)
			},
			method: http.MethodGet,
			target: "/api/v1/admin/stats",
			role:   model.RoleAdmin,
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"data":[]}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc, issuer := newRouter(t)
			tt.mockBehavior(svc)

			id := userID
			if tt.role == model.RoleAdmin {
				id = adminID
			}
			w := do(e, tt.method, tt.target, bearer(t, issuer, id, tt.role), "")
			assertResponse(t, tt.response, w)
		})
	}
}

func TestHandler_UpdateBorrowingStatus(t *testing.T) {
	t.Parallel()

	admin := model.Principal{UserID: adminID, Role: model.RoleAdmin}

	t.Run("invalid transition", func(t *testing.T) {
		t.Parallel()
		e, svc, issuer := newRouter(t)
		svc.EXPECT().UpdateBorrowingStatus(gomock.Any(), admin, loanID, model.StatusOverdue).Return(model.Borrowing{}, errs.ErrInvalidTransition)

		w := do(e, http.MethodPatch, "/api/v1/admin/borrowings/"+loanID.String(), bearer(t, issuer, adminID, model.RoleAdmin), `{"status":"OVERDUE"}`)
		assertResponse(t, response{expectedCode: http.StatusConflict, expectedBody: `{"message":"conflict: invalid status transition"}`}, w)
	})

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()
		e, _, issuer := newRouter(t)

		w := do(e, http.MethodPatch, "/api/v1/admin/borrowings/"+loanID.String(), bearer(t, issuer, adminID, model.RoleAdmin), `{"status":"LOST"}`)
		assertResponse(t, response{expectedCode: http.StatusBadRequest}, w)
	})
}

func TestHandler_GetBooks(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name         string
		mockBehavior func(r *service_mocks.MockLibraryService)
		query        string
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ListBooks(gomock.Any(), model.BookFilter{Title: "dune", Genre: "Fantasy", Page: 1, Size: 10}).
					Return(model.ListBooks{
						Paging: model.Paging{Page: 1, PageSize: 10, TotalElements: 0},
						Items:  []model.Book{},
					}, nil)
			},
			query: "?title=dune&genre=Fantasy&page=1&size=10",
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"page":1,"pageSize":10,"totalElements":0,"items":[]}`,
			},
		},
		{
			name:         "err. page",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			query:        "?page=abc",
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"page is invalid"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc, _ := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodGet, "/api/v1/books"+tt.query, "", "")
			assertResponse(t, tt.response, w)
		})
	}
}

func TestHandler_Wishlist(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: userID, Role: model.RoleUser}

	t.Run("add twice succeeds", func(t *testing.T) {
		t.Parallel()
		e, svc, issuer := newRouter(t)
		item := model.WishlistItem{ID: loanID, UserID: userID, BookID: bookID, CreatedAt: borrowDate}
		svc.EXPECT().AddToWishlist(gomock.Any(), user, bookID).Return(item, nil).Times(2)

		token := bearer(t, issuer, userID, model.RoleUser)
		for i := 0; i < 2; i++ {
			w := do(e, http.MethodPost, "/api/v1/wishlist", token, fmt.Sprintf(`{"bookId":%q}`, bookID))
			assertResponse(t, response{
				expectedCode: http.StatusOK,
				expectedBody: fmt.Sprintf(`{"id":%q,"userId":%q,"bookId":%q,"createdAt":"2024-03-01T12:00:00Z"}`, loanID, userID, bookID),
			}, w)
		}
	})

	t.Run("remove missing", func(t *testing.T) {
		t.Parallel()
		e, svc, issuer := newRouter(t)
		svc.EXPECT().RemoveFromWishlist(gomock.Any(), user, bookID).Return(errs.ErrWishlistNotFound)

		w := do(e, http.MethodDelete, "/api/v1/wishlist/"+bookID.String(), bearer(t, issuer, userID, model.RoleUser), "")
		assertResponse(t, response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"wishlist item not found"}`}, w)
	})

	t.Run("contains", func(t *testing.T) {
		t.Parallel()
		e, svc, issuer := newRouter(t)
		svc.EXPECT().IsWishlisted(gomock.Any(), user, bookID).Return(true, nil)

		w := do(e, http.MethodGet, "/api/v1/wishlist/"+bookID.String(), bearer(t, issuer, userID, model.RoleUser), "")
		assertResponse(t, response{expectedCode: http.StatusOK, expectedBody: `{"wishlisted":true}`}, w)
	})
}

func TestHandler_CreateReview(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: userID, Role: model.RoleUser}

	t.Run("rating out of range", func(t *testing.T) {
		t.Parallel()
		e, svc, issuer := newRouter(t)
		svc.EXPECT().
			CreateReview(gomock.Any(), user, model.CreateReviewRequest{BookID: bookID, Rating: 9}).
			Return(model.Review{}, errs.NewValidationError("rating", "must be between 1 and 5"))

		w := do(e, http.MethodPost, "/api/v1/reviews", bearer(t, issuer, userID, model.RoleUser), fmt.Sprintf(`{"bookId":%q,"rating":9}`, bookID))
		assertResponse(t, response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"must be between 1 and 5","field":"rating"}`}, w)
	})
}

func TestHandler_Authorize(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		e, svc, _ := newRouter(t)
		svc.EXPECT().
			Authorize(gomock.Any(), model.AuthRequest{Email: "reader@example.com", Password: "secret-pass"}).
			Return(model.AuthResponse{AccessToken: "token", ExpiresIn: 86400}, nil)

		w := do(e, http.MethodPost, "/api/v1/authorize", "", `{"email":"reader@example.com","password":"secret-pass"}`)
		assertResponse(t, response{expectedCode: http.StatusOK, expectedBody: `{"access_token":"token","expires_in":86400}`}, w)
	})

	t.Run("bad credentials", func(t *testing.T) {
		t.Parallel()
		e, svc, _ := newRouter(t)
		svc.EXPECT().Authorize(gomock.Any(), gomock.Any()).Return(model.AuthResponse{}, errs.ErrInvalidCredentials)

		w := do(e, http.MethodPost, "/api/v1/authorize", "", `{"email":"reader@example.com","password":"nope"}`)
		assertResponse(t, response{expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"unauthorized: invalid email or password"}`}, w)
	})
}
