package postgres

import (
	"context"

	"github.com/Strob0t/crmlite/internal/domain/user"
)

// UpsertUser inserts the user if the id is new and returns the stored row.
// An existing row is returned unchanged.
func (s *Store) UpsertUser(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name, created_at)
		VALUES ($1, $2, $3, $4)
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
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, full_name, created_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}
