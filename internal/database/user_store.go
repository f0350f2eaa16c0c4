package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nfrund/loginflow/internal/domain"
)

// UserStore keeps users in memory with bcrypt-hashed passwords.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	cost  int
	// dummy is compared against for unknown users so both paths cost one
	// bcrypt comparison.
	dummy  []byte
	logger *slog.Logger
}

// StoreOption configures a UserStore.
type StoreOption func(*UserStore)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) StoreOption {
	return func(s *UserStore) {
		s.cost = cost
	}
}

// NewUserStore creates an empty UserStore.
func NewUserStore(opts ...StoreOption) *UserStore {
	s := &UserStore{
		users:  make(map[string]*domain.User),
		cost:   bcrypt.DefaultCost,
		logger: slog.Default().With("service", "user_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummy, _ = bcrypt.GenerateFromPassword([]byte("unused"), s.cost)
	return s
}

// SignUp hashes password and stores a new user.
func (s *UserStore) SignUp(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("sign up %q: %w", username, domain.ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return nil, domain.ErrUserAlreadyExists
	}
	user := &domain.User{Username: username, PasswordHash: hash, CreatedAt: time.Now()}
	s.users[username] = user
	s.logger.Debug("User created", "username", username)
	return user, nil
}

// Authenticate returns the user when password matches, and
// domain.ErrInvalidCredentials otherwise.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()

	hash := s.dummy
	if ok {
		hash = user.PasswordHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// FindUserByUsername returns the stored user or domain.ErrNotFound.
func (s *UserStore) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// Seed adds users from a "name:password,name:password" list.
func (s *UserStore) Seed(ctx context.Context, list string) error {
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, password, ok := strings.Cut(entry, ":")
		if !ok {
			return fmt.Errorf("seed user %q: expected name:password", entry)
		}
		if _, err := s.SignUp(ctx, name, password); err != nil && !errors.Is(err, domain.ErrUserAlreadyExists) {
			return fmt.Errorf("seed user %q: %w", name, err)
		}
	}
	return nil
}
