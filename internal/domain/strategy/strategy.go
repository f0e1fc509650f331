// Package strategy defines the Strategy domain entity, the prompt sent to
// the generation service, and parsing of its structured reply.
package strategy

import "time"

// Strategy is an immutable AI-generated sales summary for an opportunity.
// Newer strategies supersede older ones; none are ever updated.
type Strategy struct {
	ID             int64     `json:"id" db:"id"`
	Summary        string    `json:"summary" db:"summary"`
	Sentiment      string    `json:"sentiment" db:"sentiment"`
	NextStep       string    `json:"next_step" db:"next_step"`
	TacticalAdvice string    `json:"tactical_advice" db:"tactical_advice"`
	OpportunityID  int64     `json:"opportunity_id" db:"opportunity_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Newer reports whether a supersedes b: greater created_at, ties broken by
// greater id.
func Newer(a, b *Strategy) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
