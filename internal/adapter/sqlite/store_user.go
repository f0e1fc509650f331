package sqlite

import (
	"context"

	"github.com/Strob0t/crmlite/internal/domain/user"
)

// UpsertUser inserts the user if the id is new and returns the stored row.
func (s *Store) UpsertUser(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		req.ID, req.Email, req.FullName, s.now(),
	)
	if err != nil {
		return nil, writeErr(err, nil, "upsert user %s", req.ID)
	}
	return s.GetUser(ctx, req.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	if err := s.db.GetContext(ctx, &u, `SELECT id, email, full_name, created_at FROM users WHERE id = ?`, id); err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}
