package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

const (
	minRating = 1
	maxRating = 5
)

func validateRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return errs.NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}

// CreateReview does not limit reviews per user and book.
func (s *Service) CreateReview(ctx context.Context, p model.Principal, req model.CreateReviewRequest) (model.Review, error) {
	if err := validateRating(req.Rating); err != nil {
		return model.Review{}, err
	}
	now := s.now().UTC()
	return s.repo.CreateReview(ctx, model.Review{
		ID:        uuid.New(),
		UserID:    p.UserID,
		BookID:    req.BookID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) UpdateReview(ctx context.Context, p model.Principal, id uuid.UUID, req model.UpdateReviewRequest) (model.Review, error) {
	if err := validateRating(req.Rating); err != nil {
		return model.Review{}, err
	}
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	if !p.CanActOn(review.UserID) {
		return model.Review{}, errs.ErrForbidden
	}

	review.Rating = req.Rating
	review.Comment = strings.TrimSpace(req.Comment)
	review.UpdatedAt = s.now().UTC()
	return s.repo.UpdateReview(ctx, review)
}

func (s *Service) DeleteReview(ctx context.Context, p model.Principal, id uuid.UUID) error {
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanActOn(review.UserID) {
		return errs.ErrForbidden
	}
	return s.repo.DeleteReview(ctx, id)
}

func (s *Service) ListReviewsForBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error) {
	if _, err := s.repo.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.repo.ListReviewsForBook(ctx, bookID)
}

func (s *Service) ListReviews(ctx context.Context, p model.Principal) ([]model.Review, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.ListReviews(ctx)
}
