package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/config"
	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	libraryRepo "github.com/Astemirdum/bookshelf/library/internal/repository"
	"github.com/Astemirdum/bookshelf/pkg/auth"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

// EventPublisher ships committed borrowing changes to the stats projection.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.BorrowingEvent) error
}

// FileStore releases files referenced by catalogue records.
type FileStore interface {
	Remove(ctx context.Context, path string) error
}

type Service struct {
	log       *zap.Logger
	repo      libraryRepo.Repository
	policy    config.Policy
	publisher EventPublisher
	files     FileStore
	issuer    *auth.Issuer
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithFileStore(fs FileStore) Option {
	return func(s *Service) { s.files = fs }
}

func WithIssuer(issuer *auth.Issuer) Option {
	return func(s *Service) { s.issuer = issuer }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo libraryRepo.Repository, log *zap.Logger, policy config.Policy, opts ...Option) *Service {
	s := &Service{
		log:       log.Named("service"),
		repo:      repo,
		policy:    policy,
		publisher: nopPublisher{},
		files:     nopFileStore{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireAdmin(p model.Principal) error {
	if !p.IsAdmin() {
		return errs.ErrForbidden
	}
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, kafka.BorrowingEvent) error { return nil }

type nopFileStore struct{}

func (nopFileStore) Remove(context.Context, string) error { return nil }
