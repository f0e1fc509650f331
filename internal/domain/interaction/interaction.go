// Package interaction defines the Interaction domain entity: one entry in an
// opportunity's contact history.
package interaction

import (
	"time"

	"github.com/Strob0t/crmlite/internal/domain"
)

// Type classifies an interaction.
type Type string

const (
	TypePhoneCall    Type = "Phone Call"
	TypeEmailSent    Type = "Email Sent"
	TypeMeetingNotes Type = "Meeting Notes"
	TypeCustomNote   Type = "Custom Note"
)

// Types lists all valid interaction types.
var Types = []Type{TypePhoneCall, TypeEmailSent, TypeMeetingNotes, TypeCustomNote}

// Valid reports whether t is a known interaction type.
func (t Type) Valid() bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}

func init() {
	domain.RegisterEnum("interaction_type", func(s string) bool { return Type(s).Valid() })
}

// Interaction is a single contact event recorded against an opportunity.
type Interaction struct {
	ID            int64     `json:"id" db:"id"`
	Type          Type      `json:"type" db:"type"`
	Notes         string    `json:"notes" db:"notes"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	OpportunityID int64     `json:"opportunity_id" db:"opportunity_id"`
}

// CreateRequest holds the fields needed to record an interaction.
// OpportunityID is taken from the route, not the body.
type CreateRequest struct {
	Type          Type   `json:"type" validate:"interaction_type"`
	Notes         string `json:"notes" validate:"required"`
	OpportunityID int64  `json:"-"`
}

// Validate checks the request fields.
func (r CreateRequest) Validate() error {
	return domain.Validate(r)
}

// UpdateRequest is a sparse patch. Nil fields are left untouched.
type UpdateRequest struct {
	Type  *Type   `json:"type,omitempty" validate:"omitnil,interaction_type"`
	Notes *string `json:"notes,omitempty" validate:"omitnil,min=1"`
}

// IsEmpty reports whether the patch carries no fields.
func (r UpdateRequest) IsEmpty() bool {
	return r.Type == nil && r.Notes == nil
}

// Validate checks the supplied fields.
func (r UpdateRequest) Validate() error {
	return domain.Validate(r)
}

// Apply copies the supplied fields onto i.
func (r UpdateRequest) Apply(i *Interaction) {
	if r.Type != nil {
		i.Type = *r.Type
	}
	if r.Notes != nil {
		i.Notes = *r.Notes
	}
}
