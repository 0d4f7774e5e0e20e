package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

// IsOverdue reports whether b is overdue at now.
func IsOverdue(b model.Borrowing, now time.Time) bool {
	return b.IsOverdue(now)
}

func markOverdue(items []model.Borrowing, now time.Time) []model.Borrowing {
	for i := range items {
		items[i].Overdue = items[i].IsOverdue(now)
	}
	return items
}

// dueDate applies the borrowing window, or validates a caller-supplied date against it.
func (s *Service) dueDate(now time.Time, override *time.Time) (time.Time, error) {
	if override == nil {
		return now.Add(s.policy.BorrowPeriod), nil
	}
	due := *override
	if !due.After(now) {
		return time.Time{}, errs.NewValidationError("dueDate", "must be in the future")
	}
	if due.Sub(now) > s.policy.MaxBorrowPeriod {
		return time.Time{}, errs.NewValidationError("dueDate", "exceeds the maximum borrowing period")
	}
	return due, nil
}

// Borrow checks out one copy of a book for the principal.
func (s *Service) Borrow(ctx context.Context, p model.Principal, req model.CreateBorrowingRequest) (model.Borrowing, error) {
	now := s.now().UTC()
	due, err := s.dueDate(now, req.DueDate)
	if err != nil {
		return model.Borrowing{}, err
	}

	var created model.Borrowing
	err = s.repo.RunInTx(ctx, func(ctx context.Context) error {
		book, err := s.repo.GetBookForUpdate(ctx, req.BookID)
		if err != nil {
			return err
		}
		if book.AvailableCopies < 1 {
			return errs.ErrOutOfStock
		}
		if _, found, err := s.repo.FindActiveBorrowing(ctx, p.UserID, book.ID); err != nil {
			return err
		} else if found {
			return errs.ErrAlreadyBorrowed
		}

		created, err = s.repo.CreateBorrowing(ctx, model.Borrowing{
			ID:         uuid.New(),
			UserID:     p.UserID,
			BookID:     book.ID,
			Status:     model.StatusBorrowed,
			BorrowDate: now,
			DueDate:    due,
		})
		if err != nil {
			return err
		}
		return s.repo.DecrementAvailable(ctx, book.ID)
	})
	if err != nil {
		return model.Borrowing{}, err
	}

	s.log.Info("book borrowed",
		zap.Stringer("borrowing_id", created.ID),
		zap.Stringer("book_id", created.BookID),
		zap.Stringer("user_id", created.UserID))
	s.publish(ctx, kafka.EventBorrowed, created)
	created.Overdue = created.IsOverdue(now)
	return created, nil
}

// Return closes an outstanding borrowing and gives the copy back.
func (s *Service) Return(ctx context.Context, p model.Principal, borrowingID uuid.UUID) (model.Borrowing, error) {
	now := s.now().UTC()

	var returned model.Borrowing
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetBorrowingForUpdate(ctx, borrowingID)
		if err != nil {
			return err
		}
		if !p.CanActOn(b.UserID) {
			return errs.ErrForbidden
		}
		if !b.Status.Outstanding() {
			return errs.ErrAlreadyReturned
		}

		returned, err = s.repo.SetBorrowingStatus(ctx, b.ID, model.StatusReturned, now)
		if err != nil {
			return err
		}
		return s.repo.IncrementAvailable(ctx, b.BookID)
	})
	if err != nil {
		return model.Borrowing{}, err
	}

	s.log.Info("book returned",
		zap.Stringer("borrowing_id", returned.ID),
		zap.Stringer("book_id", returned.BookID))
	s.publish(ctx, kafka.EventReturned, returned)
	returned.Overdue = returned.IsOverdue(now)
	return returned, nil
}

// DeleteBorrowing removes a ledger row. A copy still held by the borrowing goes back to stock.
func (s *Service) DeleteBorrowing(ctx context.Context, p model.Principal, borrowingID uuid.UUID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}

	var deleted model.Borrowing
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetBorrowingForUpdate(ctx, borrowingID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteBorrowing(ctx, b.ID); err != nil {
			return err
		}
		deleted = b
		if b.Status.Outstanding() {
			return s.repo.IncrementAvailable(ctx, b.BookID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("borrowing deleted",
		zap.Stringer("borrowing_id", deleted.ID),
		zap.String("status", string(deleted.Status)))
	s.publish(ctx, kafka.EventDeleted, deleted)
	return nil
}

// UpdateBorrowingStatus is the admin override of the status machine.
func (s *Service) UpdateBorrowingStatus(ctx context.Context, p model.Principal, borrowingID uuid.UUID, status model.BorrowingStatus) (model.Borrowing, error) {
	if err := requireAdmin(p); err != nil {
		return model.Borrowing{}, err
	}
	if !status.Valid() {
		return model.Borrowing{}, errs.NewValidationError("status", "unknown status")
	}
	if status == model.StatusReturned {
		return s.Return(ctx, p, borrowingID)
	}

	now := s.now().UTC()
	var updated model.Borrowing
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetBorrowingForUpdate(ctx, borrowingID)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(status) {
			return errs.ErrInvalidTransition
		}
		updated, err = s.repo.SetBorrowingStatus(ctx, b.ID, status, now)
		return err
	})
	if err != nil {
		return model.Borrowing{}, err
	}
	updated.Overdue = updated.IsOverdue(now)
	return updated, nil
}

func (s *Service) GetBorrowing(ctx context.Context, p model.Principal, borrowingID uuid.UUID) (model.Borrowing, error) {
	b, err := s.repo.GetBorrowing(ctx, borrowingID)
	if err != nil {
		return model.Borrowing{}, err
	}
	if !p.CanActOn(b.UserID) {
		return model.Borrowing{}, errs.ErrForbidden
	}
	b.Overdue = b.IsOverdue(s.now())
	return b, nil
}

// ListBorrowings returns the principal's outstanding borrowings.
func (s *Service) ListBorrowings(ctx context.Context, p model.Principal) ([]model.Borrowing, error) {
	items, err := s.repo.ListBorrowingsForUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	active := make([]model.Borrowing, 0, len(items))
	for _, b := range items {
		if b.Status.Outstanding() {
			active = append(active, b)
		}
	}
	return markOverdue(active, s.now()), nil
}

// BorrowingHistory returns every borrowing of the principal, newest first.
func (s *Service) BorrowingHistory(ctx context.Context, p model.Principal) ([]model.Borrowing, error) {
	items, err := s.repo.ListBorrowingsForUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return markOverdue(items, s.now()), nil
}

func (s *Service) ListAllBorrowings(ctx context.Context, p model.Principal) ([]model.Borrowing, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	items, err := s.repo.ListBorrowings(ctx)
	if err != nil {
		return nil, err
	}
	return markOverdue(items, s.now()), nil
}

func (s *Service) ListOverdue(ctx context.Context, p model.Principal) ([]model.Borrowing, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	now := s.now()
	items, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	return markOverdue(items, now), nil
}
