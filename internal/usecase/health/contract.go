package health

import "context"

// DBPinger checks state store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// KnowledgeBaseChecker checks answering-service availability.
type KnowledgeBaseChecker interface {
	HealthCheck(ctx context.Context) error
}
