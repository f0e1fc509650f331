// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Publisher is the port interface for publishing lifecycle events.
type Publisher interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the connection.
	Close() error
}

// Subject constants for NATS subjects used by crmlite.
const (
	SubjectOpportunityCreated = "crm.opportunities.created"
	SubjectOpportunityDeleted = "crm.opportunities.deleted"
	SubjectStrategyGenerated  = "crm.strategies.generated"
)

// Nop discards every message. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }

// Handler processes one delivered message. A returned error naks the message.
type Handler func(ctx context.Context, subject string, data []byte) error

// Subscriber is implemented by brokers that can also deliver events.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler Handler) (stop func(), err error)
}
