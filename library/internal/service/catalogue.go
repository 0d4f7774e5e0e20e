package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, filter)
}

func bookFromInput(id uuid.UUID, in model.BookInput) model.Book {
	return model.Book{
		ID:              id,
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		ISBN:            strings.TrimSpace(in.ISBN),
		PublicationYear: in.PublicationYear,
		Publisher:       in.Publisher,
		Description:     in.Description,
		Language:        in.Language,
		PageCount:       in.PageCount,
		GenreID:         in.GenreID,
		TotalCopies:     in.TotalCopies,
		EbookFile:       in.EbookFile,
	}
}

func (s *Service) CreateBook(ctx context.Context, in model.BookInput) (model.Book, error) {
	if in.TotalCopies < 0 {
		return model.Book{}, errs.NewValidationError("totalCopies", "must not be negative")
	}
	book := bookFromInput(uuid.New(), in)
	book.AvailableCopies = in.TotalCopies
	if in.AvailableCopies != nil {
		if *in.AvailableCopies < 0 || *in.AvailableCopies > in.TotalCopies {
			return model.Book{}, errs.NewValidationError("availableCopies", "must be between 0 and totalCopies")
		}
		book.AvailableCopies = *in.AvailableCopies
	}
	return s.repo.CreateBook(ctx, book)
}

// UpdateBook rewrites the book and recomputes available copies from the outstanding borrowings.
func (s *Service) UpdateBook(ctx context.Context, id uuid.UUID, in model.BookInput) (model.Book, error) {
	var (
		updated  model.Book
		oldEbook *string
	)
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetBookForUpdate(ctx, id)
		if err != nil {
			return err
		}
		outstanding, err := s.repo.CountOutstanding(ctx, id)
		if err != nil {
			return err
		}
		if in.TotalCopies < outstanding {
			return errs.NewValidationError("totalCopies", "must not be less than the number of borrowed copies")
		}

		book := bookFromInput(id, in)
		book.AvailableCopies = in.TotalCopies - outstanding
		updated, err = s.repo.UpdateBook(ctx, book)
		if err != nil {
			return err
		}
		oldEbook = current.EbookFile
		return nil
	})
	if err != nil {
		return model.Book{}, err
	}

	if oldEbook != nil && (updated.EbookFile == nil || *updated.EbookFile != *oldEbook) {
		s.removeFile(ctx, *oldEbook)
	}
	return updated, nil
}

// DeleteBook refuses while copies are still out; otherwise related rows go with the book.
func (s *Service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	var deleted model.Book
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetBookForUpdate(ctx, id); err != nil {
			return err
		}
		outstanding, err := s.repo.CountOutstanding(ctx, id)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return errs.ErrBookHasActiveBorrowings
		}
		deleted, err = s.repo.DeleteBook(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("book deleted", zap.Stringer("book_id", id))
	if deleted.EbookFile != nil {
		s.removeFile(ctx, *deleted.EbookFile)
	}
	return nil
}

func (s *Service) removeFile(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.files.Remove(ctx, path); err != nil {
		s.log.Error("remove ebook file", zap.String("path", path), zap.Error(err))
	}
}

func (s *Service) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return s.repo.ListGenres(ctx)
}

func (s *Service) GetGenre(ctx context.Context, id uuid.UUID) (model.Genre, error) {
	return s.repo.GetGenre(ctx, id)
}

func (s *Service) CreateGenre(ctx context.Context, name string) (model.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Genre{}, errs.NewValidationError("name", "must not be empty")
	}
	return s.repo.CreateGenre(ctx, model.Genre{ID: uuid.New(), Name: name})
}

func (s *Service) UpdateGenre(ctx context.Context, id uuid.UUID, name string) (model.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Genre{}, errs.NewValidationError("name", "must not be empty")
	}
	return s.repo.UpdateGenre(ctx, model.Genre{ID: id, Name: name})
}

func (s *Service) DeleteGenre(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteGenre(ctx, id)
}
