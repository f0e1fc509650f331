// Package user defines the User domain entity.
package user

import (
	"time"

	"github.com/Strob0t/crmlite/internal/domain"
)

// User is an account issued by the external identity provider. Users are
// created on first reference and never updated afterwards.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  *string   `json:"full_name,omitempty" db:"full_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateRequest holds the fields for an idempotent user upsert.
type CreateRequest struct {
	ID       string  `json:"id" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=320"`
	FullName *string `json:"full_name,omitempty" validate:"omitnil,max=255"`
}

// Validate checks the request fields.
func (r CreateRequest) Validate() error {
	return domain.Validate(r)
}
