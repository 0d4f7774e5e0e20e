package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

// AddToWishlist succeeds on a repeated add unless the strict policy is on.
func (s *Service) AddToWishlist(ctx context.Context, p model.Principal, bookID uuid.UUID) (model.WishlistItem, error) {
	item, created, err := s.repo.AddWishlistItem(ctx, model.WishlistItem{
		ID:     uuid.New(),
		UserID: p.UserID,
		BookID: bookID,
	})
	if err != nil {
		return model.WishlistItem{}, err
	}
	if !created && s.policy.WishlistStrict {
		return model.WishlistItem{}, errs.ErrAlreadyWishlisted
	}
	return item, nil
}

func (s *Service) RemoveFromWishlist(ctx context.Context, p model.Principal, bookID uuid.UUID) error {
	return s.repo.RemoveWishlistItem(ctx, p.UserID, bookID)
}

func (s *Service) ListWishlist(ctx context.Context, p model.Principal) ([]model.Book, error) {
	return s.repo.ListWishlist(ctx, p.UserID)
}

func (s *Service) IsWishlisted(ctx context.Context, p model.Principal, bookID uuid.UUID) (bool, error) {
	return s.repo.IsWishlisted(ctx, p.UserID, bookID)
}
