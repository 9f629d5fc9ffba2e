package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"secretsanta/internal/derangement"
	"secretsanta/internal/domain"
	"secretsanta/internal/repository"
)

type Service struct {
	repo        repository.Repository
	log         *slog.Logger
	rand        derangement.Source
	maxAttempts int
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithRand fixes the random source used for draws. Draws of different
// groups may run in parallel, so src is guarded by a mutex.
func WithRand(src derangement.Source) Option {
	return func(s *Service) {
		if src == nil {
			s.rand = nil
			return
		}
		s.rand = &lockedSource{src: src}
	}
}

type lockedSource struct {
	mu  sync.Mutex
	src derangement.Source
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

func WithMaxAttempts(n int) Option {
	return func(s *Service) { s.maxAttempts = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts: derangement.DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// inTx runs fn under the repository's writer lock.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txRepo, ok := s.repo.(repository.Transactor)
	if !ok {
		return errors.New("repository does not support transactions")
	}
	return txRepo.RunInTx(ctx, fn)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

// Ping checks the storage backend when it supports health checks.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.repo.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
