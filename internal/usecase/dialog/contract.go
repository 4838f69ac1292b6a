package dialog

import (
	"context"

	"github.com/kailas-cloud/converse/internal/domain/answer"
	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	"github.com/kailas-cloud/converse/internal/domain/feedback"
)

// AnsweringClient is the answering-service contract: query a knowledge base,
// narrow a ranked result set to its low-score variation, and submit training
// feedback.
type AnsweringClient interface {
	Query(ctx context.Context, question string, opts domdialog.QueryOptions) (answer.Response, error)
	LowScoreVariation(answers []answer.Answer) []answer.Answer
	Train(ctx context.Context, records []feedback.Record) error
}

// StateStore persists TurnState per conversation and dialog instance.
type StateStore interface {
	Load(ctx context.Context, conversationID, instanceID string) (domdialog.TurnState, error)
	Save(ctx context.Context, conversationID, instanceID string, state domdialog.TurnState) error
	Clear(ctx context.Context, conversationID, instanceID string) error
}

// Sender is the turn-scoped outbound message capability. A send failure is a
// fatal turn failure; senders must not retry.
type Sender interface {
	Send(ctx context.Context, msg domdialog.Message) error
}

// Trainer submits feedback records. Narrow view of AnsweringClient for the
// feedback coordinator.
type Trainer interface {
	Train(ctx context.Context, records []feedback.Record) error
}

// VariationFilter narrows a ranked result set for disambiguation. Narrow view
// of AnsweringClient for the active-learning selector.
type VariationFilter interface {
	LowScoreVariation(answers []answer.Answer) []answer.Answer
}

// Session identifies whose turn is being processed.
type Session struct {
	ConversationID string
	InstanceID     string
	UserID         string
}
