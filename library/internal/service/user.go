package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
)

func (s *Service) Register(ctx context.Context, req model.UserCreateRequest) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}
	return s.repo.CreateUser(ctx, model.User{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         model.RoleUser,
		CreatedAt:    s.now().UTC(),
	})
}

// EnsureAdmin creates the bootstrap administrator. An account already
// registered under the email is promoted and keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, req model.UserCreateRequest) (model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return model.User{}, errs.NewValidationError("email", "must not be empty")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == model.RoleAdmin {
			return user, nil
		}
		s.log.Info("promote user to admin", zap.Stringer("user_id", user.ID))
		return s.repo.SetUserRole(ctx, user.ID, model.RoleAdmin)
	case !errors.Is(err, errs.ErrUserNotFound):
		return model.User{}, err
	}

	if req.Password == "" {
		return model.User{}, errs.NewValidationError("password", "must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Administrator"
	}
	return s.repo.CreateUser(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         model.RoleAdmin,
		CreatedAt:    s.now().UTC(),
	})
}

// Authorize checks the credentials and issues an access token.
func (s *Service) Authorize(ctx context.Context, req model.AuthRequest) (model.AuthResponse, error) {
	if s.issuer == nil {
		return model.AuthResponse{}, errors.New("token issuer is not configured")
	}
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return model.AuthResponse{}, errs.ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.AuthResponse{}, errs.ErrInvalidCredentials
	}

	now := s.now()
	token, expiresAt, err := s.issuer.Issue(user.ID.String(), string(user.Role), user.Email, now)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int(expiresAt.Sub(now).Seconds()),
	}, nil
}

func (s *Service) GetProfile(ctx context.Context, p model.Principal) (model.User, error) {
	return s.repo.GetUser(ctx, p.UserID)
}

func (s *Service) UpdateProfile(ctx context.Context, p model.Principal, req model.UpdateProfileRequest) (model.User, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.User{}, errs.NewValidationError("name", "must not be empty")
		}
		req.Name = &name
	}
	return s.repo.UpdateUserProfile(ctx, p.UserID, req)
}

func (s *Service) UserStats(ctx context.Context, p model.Principal) (model.UserStats, error) {
	var stats model.UserStats
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountActiveBorrowings(gCtx, p.UserID)
		if err != nil {
			return err
		}
		stats.BorrowedBooks = n
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountWishlist(gCtx, p.UserID)
		if err != nil {
			return err
		}
		stats.WishlistCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.UserStats{}, err
	}
	return stats, nil
}
