// Package opportunity defines the Opportunity domain entity and the
// ownership predicate used by every opportunity-reaching accessor.
package opportunity

import (
	"time"

	"github.com/Strob0t/crmlite/internal/domain"
)

// Status is the pipeline stage of an opportunity.
type Status string

const (
	StatusNew       Status = "New"
	StatusContacted Status = "Contacted"
	StatusFollowUp  Status = "Follow-Up"
	StatusWon       Status = "Won"
	StatusLost      Status = "Lost"
)

// Statuses lists all valid statuses in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusFollowUp, StatusWon, StatusLost}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func init() {
	domain.RegisterEnum("opportunity_status", func(s string) bool { return Status(s).Valid() })
}

// Opportunity is a sales lead owned by exactly one user.
type Opportunity struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Status    Status    `json:"status" db:"status"`
	Value     float64   `json:"value" db:"value"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BelongsTo reports whether o is owned by userID. It is the single ownership
// predicate; every opportunity-reaching lookup must pass through it.
func BelongsTo(o *Opportunity, userID string) bool {
	return o != nil && userID != "" && o.UserID == userID
}

// CreateRequest holds the fields needed to create an opportunity.
type CreateRequest struct {
	Name   string  `json:"name" validate:"required,max=255"`
	Email  string  `json:"email" validate:"required,email,max=320"`
	Status Status  `json:"status" validate:"opportunity_status"`
	Value  float64 `json:"value" validate:"gte=0"`
	UserID string  `json:"user_id" validate:"required"`
}

// Normalize applies create defaults: status New when omitted.
func (r *CreateRequest) Normalize() {
	if r.Status == "" {
		r.Status = StatusNew
	}
}

// Validate checks the request fields. Call Normalize first.
func (r CreateRequest) Validate() error {
	return domain.Validate(r)
}

// UpdateRequest is a sparse patch. Nil fields are left untouched.
type UpdateRequest struct {
	Name   *string  `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	Email  *string  `json:"email,omitempty" validate:"omitnil,email,max=320"`
	Status *Status  `json:"status,omitempty" validate:"omitnil,opportunity_status"`
	Value  *float64 `json:"value,omitempty" validate:"omitnil,gte=0"`
}

// IsEmpty reports whether the patch carries no fields.
func (r UpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Status == nil && r.Value == nil
}

// Validate checks the supplied fields.
func (r UpdateRequest) Validate() error {
	return domain.Validate(r)
}

// Apply copies the supplied fields onto o.
func (r UpdateRequest) Apply(o *Opportunity) {
	if r.Name != nil {
		o.Name = *r.Name
	}
	if r.Email != nil {
		o.Email = *r.Email
	}
	if r.Status != nil {
		o.Status = *r.Status
	}
	if r.Value != nil {
		o.Value = *r.Value
	}
}

// ListFilter narrows a list query. Zero values mean "no filter".
type ListFilter struct {
	UserID string
	Status Status
}

// CascadeResult reports the child rows removed with an opportunity.
type CascadeResult struct {
	Interactions int64 `json:"interactions"`
	Strategies   int64 `json:"strategies"`
}
