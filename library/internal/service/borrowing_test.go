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

	"github.com/Astemirdum/bookshelf/library/config"
	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	repo_mocks "github.com/Astemirdum/bookshelf/library/internal/repository/mocks"
	"github.com/Astemirdum/bookshelf/library/internal/service"
	service_mocks "github.com/Astemirdum/bookshelf/library/internal/service/mocks"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

var (
	testNow    = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testPolicy = config.Policy{
		BorrowPeriod:    7 * 24 * time.Hour,
		MaxBorrowPeriod: 30 * 24 * time.Hour,
	}
)

type deps struct {
	repo      *repo_mocks.MockRepository
	publisher *service_mocks.MockEventPublisher
	files     *service_mocks.MockFileStore
}

func newTestService(t *testing.T, policy config.Policy) (*service.Service, deps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := deps{
		repo:      repo_mocks.NewMockRepository(ctrl),
		publisher: service_mocks.NewMockEventPublisher(ctrl),
		files:     service_mocks.NewMockFileStore(ctrl),
	}
	d.repo.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()

	svc := service.NewService(d.repo, zap.NewNop(), policy,
		service.WithPublisher(d.publisher),
		service.WithFileStore(d.files),
		service.WithClock(func() time.Time { return testNow }),
	)
	return svc, d
}

func TestService_Borrow(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	bookID := uuid.New()
	book := model.Book{ID: bookID, TotalCopies: 2, AvailableCopies: 2}
	tooLate := testNow.Add(31 * 24 * time.Hour)
	past := testNow.Add(-time.Hour)
	custom := testNow.Add(3 * 24 * time.Hour)

	type mockBehavior func(d deps)

	tests := []struct {
		name         string
		req          model.CreateBorrowingRequest
		mockBehavior mockBehavior
		wantDue      time.Time
		wantErr      error
	}{
		{
			name: "ok default window",
			req:  model.CreateBorrowingRequest{BookID: bookID},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBookForUpdate(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().FindActiveBorrowing(gomock.Any(), user.UserID, bookID).Return(model.Borrowing{}, false, nil)
				d.repo.EXPECT().CreateBorrowing(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b model.Borrowing) (model.Borrowing, error) {
						require.Equal(t, model.StatusBorrowed, b.Status)
						require.Equal(t, testNow, b.BorrowDate)
						require.Nil(t, b.ReturnDate)
						return b, nil
					})
				d.repo.EXPECT().DecrementAvailable(gomock.Any(), bookID).Return(nil)
				d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, e kafka.BorrowingEvent) error {
						require.Equal(t, kafka.EventBorrowed, e.Type)
						require.Equal(t, bookID.String(), e.BookID)
						return nil
					})
			},
			wantDue: testNow.Add(7 * 24 * time.Hour),
		},
		{
			name: "ok custom due date",
			req:  model.CreateBorrowingRequest{BookID: bookID, DueDate: &custom},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBookForUpdate(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().FindActiveBorrowing(gomock.Any(), user.UserID, bookID).Return(model.Borrowing{}, false, nil)
				d.repo.EXPECT().CreateBorrowing(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b model.Borrowing) (model.Borrowing, error) { return b, nil })
				d.repo.EXPECT().DecrementAvailable(gomock.Any(), bookID).Return(nil)
				d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
			wantDue: custom,
		},
		{
			name:         "due date in the past",
			req:          model.CreateBorrowingRequest{BookID: bookID, DueDate: &past},
			mockBehavior: func(d deps) {},
			wantErr:      errs.ErrValidation,
		},
		{
			name:         "due date beyond max period",
			req:          model.CreateBorrowingRequest{BookID: bookID, DueDate: &tooLate},
			mockBehavior: func(d deps) {},
			wantErr:      errs.ErrValidation,
		},
		{
			name: "book not found",
			req:  model.CreateBorrowingRequest{BookID: bookID},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBookForUpdate(gomock.Any(), bookID).Return(model.Book{}, errs.ErrBookNotFound)
			},
			wantErr: errs.ErrBookNotFound,
		},
		{
			name: "out of stock",
			req:  model.CreateBorrowingRequest{BookID: bookID},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBookForUpdate(gomock.Any(), bookID).
					Return(model.Book{ID: bookID, TotalCopies: 1, AvailableCopies: 0}, nil)
			},
			wantErr: errs.ErrOutOfStock,
		},
		{
			name: "already borrowed",
			req:  model.CreateBorrowingRequest{BookID: bookID},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBookForUpdate(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().FindActiveBorrowing(gomock.Any(), user.UserID, bookID).
					Return(model.Borrowing{ID: uuid.New(), Status: model.StatusBorrowed}, true, nil)
			},
			wantErr: errs.ErrAlreadyBorrowed,
		},
		{
			name: "unique index catches concurrent duplicate",
			req:  model.CreateBorrowingRequest{BookID: bookID},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBookForUpdate(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().FindActiveBorrowing(gomock.Any(), user.UserID, bookID).Return(model.Borrowing{}, false, nil)
				d.repo.EXPECT().CreateBorrowing(gomock.Any(), gomock.Any()).Return(model.Borrowing{}, errs.ErrAlreadyBorrowed)
			},
			wantErr: errs.ErrAlreadyBorrowed,
		},
		{
			name: "conditional decrement loses the race",
			req:  model.CreateBorrowingRequest{BookID: bookID},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBookForUpdate(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().FindActiveBorrowing(gomock.Any(), user.UserID, bookID).Return(model.Borrowing{}, false, nil)
				d.repo.EXPECT().CreateBorrowing(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b model.Borrowing) (model.Borrowing, error) { return b, nil })
				d.repo.EXPECT().DecrementAvailable(gomock.Any(), bookID).Return(errs.ErrOutOfStock)
			},
			wantErr: errs.ErrOutOfStock,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, d := newTestService(t, testPolicy)
			tt.mockBehavior(d)

			got, err := svc.Borrow(context.Background(), user, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantDue, got.DueDate)
			require.Equal(t, user.UserID, got.UserID)
			require.False(t, got.Overdue)
		})
	}
}

func TestService_Return(t *testing.T) {
	t.Parallel()

	owner := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	stranger := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	admin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	returnedAt := testNow

	borrowing := model.Borrowing{
		ID:         uuid.New(),
		UserID:     owner.UserID,
		BookID:     uuid.New(),
		Status:     model.StatusBorrowed,
		BorrowDate: testNow.Add(-48 * time.Hour),
		DueDate:    testNow.Add(24 * time.Hour),
	}
	overdue := borrowing
	overdue.Status = model.StatusOverdue
	closed := borrowing
	closed.Status = model.StatusReturned
	closed.ReturnDate = &returnedAt

	expectReturn := func(d deps, b model.Borrowing) {
		d.repo.EXPECT().SetBorrowingStatus(gomock.Any(), b.ID, model.StatusReturned, testNow).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, status model.BorrowingStatus, at time.Time) (model.Borrowing, error) {
				b.Status = status
				b.ReturnDate = &at
				return b, nil
			})
		d.repo.EXPECT().IncrementAvailable(gomock.Any(), b.BookID).Return(nil)
		d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	}

	tests := []struct {
		name         string
		principal    model.Principal
		mockBehavior func(d deps)
		wantErr      error
	}{
		{
			name:      "owner returns",
			principal: owner,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), borrowing.ID).Return(borrowing, nil)
				expectReturn(d, borrowing)
			},
		},
		{
			name:      "admin returns foreign overdue borrowing",
			principal: admin,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), borrowing.ID).Return(overdue, nil)
				expectReturn(d, overdue)
			},
		},
		{
			name:      "stranger is forbidden",
			principal: stranger,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), borrowing.ID).Return(borrowing, nil)
			},
			wantErr: errs.ErrForbidden,
		},
		{
			name:      "already returned",
			principal: owner,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), borrowing.ID).Return(closed, nil)
			},
			wantErr: errs.ErrAlreadyReturned,
		},
		{
			name:      "not found",
			principal: owner,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), borrowing.ID).Return(model.Borrowing{}, errs.ErrBorrowingNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, d := newTestService(t, testPolicy)
			tt.mockBehavior(d)

			got, err := svc.Return(context.Background(), tt.principal, borrowing.ID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.StatusReturned, got.Status)
			require.NotNil(t, got.ReturnDate)
			require.Equal(t, testNow, *got.ReturnDate)
			require.False(t, got.Overdue)
		})
	}
}

func TestService_DeleteBorrowing(t *testing.T) {
	t.Parallel()

	admin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	user := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	active := model.Borrowing{ID: uuid.New(), UserID: user.UserID, BookID: uuid.New(), Status: model.StatusBorrowed}
	overdue := active
	overdue.Status = model.StatusOverdue
	returned := active
	returned.Status = model.StatusReturned

	tests := []struct {
		name         string
		principal    model.Principal
		mockBehavior func(d deps)
		wantErr      error
	}{
		{
			name:         "non admin is forbidden",
			principal:    user,
			mockBehavior: func(d deps) {},
			wantErr:      errs.ErrForbidden,
		},
		{
			name:      "outstanding borrowing gives the copy back",
			principal: admin,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), active.ID).Return(active, nil)
				d.repo.EXPECT().DeleteBorrowing(gomock.Any(), active.ID).Return(nil)
				d.repo.EXPECT().IncrementAvailable(gomock.Any(), active.BookID).Return(nil)
				d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "overdue borrowing gives the copy back",
			principal: admin,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), active.ID).Return(overdue, nil)
				d.repo.EXPECT().DeleteBorrowing(gomock.Any(), active.ID).Return(nil)
				d.repo.EXPECT().IncrementAvailable(gomock.Any(), active.BookID).Return(nil)
				d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "returned borrowing leaves stock alone",
			principal: admin,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), active.ID).Return(returned, nil)
				d.repo.EXPECT().DeleteBorrowing(gomock.Any(), active.ID).Return(nil)
				d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "not found",
			principal: admin,
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), active.ID).Return(model.Borrowing{}, errs.ErrBorrowingNotFound)
			},
			wantErr: errs.ErrBorrowingNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, d := newTestService(t, testPolicy)
			tt.mockBehavior(d)

			err := svc.DeleteBorrowing(context.Background(), tt.principal, active.ID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestService_UpdateBorrowingStatus(t *testing.T) {
	t.Parallel()

	admin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	b := model.Borrowing{ID: uuid.New(), UserID: uuid.New(), BookID: uuid.New(), Status: model.StatusBorrowed, DueDate: testNow.Add(-time.Hour)}

	t.Run("borrowed to overdue", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), b.ID).Return(b, nil)
		d.repo.EXPECT().SetBorrowingStatus(gomock.Any(), b.ID, model.StatusOverdue, testNow).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, status model.BorrowingStatus, _ time.Time) (model.Borrowing, error) {
				out := b
				out.Status = status
				return out, nil
			})

		got, err := svc.UpdateBorrowingStatus(context.Background(), admin, b.ID, model.StatusOverdue)
		require.NoError(t, err)
		require.Equal(t, model.StatusOverdue, got.Status)
		require.True(t, got.Overdue)
	})

	t.Run("returned cannot become overdue", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		closed := b
		closed.Status = model.StatusReturned
		d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), b.ID).Return(closed, nil)

		_, err := svc.UpdateBorrowingStatus(context.Background(), admin, b.ID, model.StatusOverdue)
		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("returned goes through return", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t, testPolicy)
		d.repo.EXPECT().GetBorrowingForUpdate(gomock.Any(), b.ID).Return(b, nil)
		d.repo.EXPECT().SetBorrowingStatus(gomock.Any(), b.ID, model.StatusReturned, testNow).Return(model.Borrowing{ID: b.ID, Status: model.StatusReturned}, nil)
		d.repo.EXPECT().IncrementAvailable(gomock.Any(), b.BookID).Return(nil)
		d.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		got, err := svc.UpdateBorrowingStatus(context.Background(), admin, b.ID, model.StatusReturned)
		require.NoError(t, err)
		require.Equal(t, model.StatusReturned, got.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, testPolicy)
		_, err := svc.UpdateBorrowingStatus(context.Background(), admin, b.ID, "LOST")
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("non admin", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, testPolicy)
		_, err := svc.UpdateBorrowingStatus(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RoleUser}, b.ID, model.StatusOverdue)
		require.ErrorIs(t, err, errs.ErrForbidden)
	})
}

func TestService_ListBorrowings(t *testing.T) {
	t.Parallel()

	user := model.Principal{UserID: uuid.New(), Role: model.RoleUser}
	returnedAt := testNow.Add(-time.Hour)
	items := []model.Borrowing{
		{ID: uuid.New(), Status: model.StatusBorrowed, DueDate: testNow.Add(time.Hour)},
		{ID: uuid.New(), Status: model.StatusBorrowed, DueDate: testNow.Add(-time.Hour)},
		{ID: uuid.New(), Status: model.StatusReturned, DueDate: testNow.Add(-48 * time.Hour), ReturnDate: &returnedAt},
	}

	svc, d := newTestService(t, testPolicy)
	d.repo.EXPECT().ListBorrowingsForUser(gomock.Any(), user.UserID).
		DoAndReturn(func(context.Context, uuid.UUID) ([]model.Borrowing, error) {
			out := make([]model.Borrowing, len(items))
			copy(out, items)
			return out, nil
		}).Times(2)

	active, err := svc.ListBorrowings(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.False(t, active[0].Overdue)
	require.True(t, active[1].Overdue)

	history, err := svc.BorrowingHistory(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.False(t, history[2].Overdue)
}

func TestService_GetBorrowing(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	b := model.Borrowing{ID: uuid.New(), UserID: owner, Status: model.StatusBorrowed, DueDate: testNow.Add(time.Hour)}

	svc, d := newTestService(t, testPolicy)
	d.repo.EXPECT().GetBorrowing(gomock.Any(), b.ID).Return(b, nil).Times(2)

	_, err := svc.GetBorrowing(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RoleUser}, b.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)

	got, err := svc.GetBorrowing(context.Background(), model.Principal{UserID: owner, Role: model.RoleUser}, b.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	returnedAt := testNow
	tests := []struct {
		name string
		b    model.Borrowing
		want bool
	}{
		{name: "before due", b: model.Borrowing{Status: model.StatusBorrowed, DueDate: testNow.Add(time.Minute)}, want: false},
		{name: "at due", b: model.Borrowing{Status: model.StatusBorrowed, DueDate: testNow}, want: false},
		{name: "after due", b: model.Borrowing{Status: model.StatusBorrowed, DueDate: testNow.Add(-time.Minute)}, want: true},
		{name: "flagged overdue", b: model.Borrowing{Status: model.StatusOverdue, DueDate: testNow.Add(time.Hour)}, want: true},
		{name: "returned late", b: model.Borrowing{Status: model.StatusReturned, DueDate: testNow.Add(-time.Hour), ReturnDate: &returnedAt}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, service.IsOverdue(tt.b, testNow))
		})
	}
}
