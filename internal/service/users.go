// Package service implements the crmlite lifecycle and strategy workflows
// on top of the store, generator and event ports.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/crmlite/internal/domain/user"
	"github.com/Strob0t/crmlite/internal/port/cache"
	"github.com/Strob0t/crmlite/internal/port/database"
)

// UserService ensures users exist on first reference.
type UserService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewUserService creates a new UserService. c may be nil to disable caching.
func NewUserService(store database.Store, c cache.Cache, ttl time.Duration) *UserService {
	return &UserService{store: store, cache: c, ttl: ttl}
}

func userKey(id string) string { return "user:" + id }

// Upsert creates the user if absent and returns the stored row. An existing
// user is returned unchanged.
func (s *UserService) Upsert(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if u, ok := s.cached(ctx, req.ID); ok {
		return u, nil
	}
	u, err := s.store.UpsertUser(ctx, req)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, u)
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*user.User, error) {
	if u, ok := s.cached(ctx, id); ok {
		return u, nil
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, u)
	return u, nil
}

func (s *UserService) cached(ctx context.Context, id string) (*user.User, bool) {
	if s.cache == nil {
		return nil, false
	}
	return cache.GetJSON[user.User](ctx, s.cache, userKey(id))
}

func (s *UserService) remember(ctx context.Context, u *user.User) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, userKey(u.ID), u, s.ttl); err != nil {
		slog.WarnContext(ctx, "user cache set failed", "user_id", u.ID, "error", err)
	}
}
