package messagequeue

import "time"

// OpportunityCreatedPayload is the schema for crm.opportunities.created messages.
type OpportunityCreatedPayload struct {
	OpportunityID int64     `json:"opportunity_id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	Value         float64   `json:"value"`
	CreatedAt     time.Time `json:"created_at"`
}

// OpportunityDeletedPayload is the schema for crm.opportunities.deleted messages.
type OpportunityDeletedPayload struct {
	OpportunityID int64  `json:"opportunity_id"`
	UserID        string `json:"user_id"`
	Interactions  int64  `json:"interactions"`
	Strategies    int64  `json:"strategies"`
}

// StrategyGeneratedPayload is the schema for crm.strategies.generated messages.
type StrategyGeneratedPayload struct {
	StrategyID    int64     `json:"strategy_id"`
	OpportunityID int64     `json:"opportunity_id"`
	UserID        string    `json:"user_id"`
	Sentiment     string    `json:"sentiment"`
	Model         string    `json:"model,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
