package dispatch

import (
	"context"

	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	"github.com/kailas-cloud/converse/internal/domain/intent"
	dialoguc "github.com/kailas-cloud/converse/internal/usecase/dialog"
)

// Recognizer classifies an utterance into a ranked intent with entities.
type Recognizer interface {
	Recognize(ctx context.Context, text string) (intent.Recognition, error)
}

// DialogRunner processes one turn of the knowledge-base dialog.
type DialogRunner interface {
	Turn(
		ctx context.Context, sess dialoguc.Session, userText string, sender dialoguc.Sender,
	) (domdialog.TurnOutcome, error)
}

// ConversationStore tracks the active dialog instance per conversation.
type ConversationStore interface {
	ActiveInstance(ctx context.Context, conversationID string) (string, bool, error)
	SetActiveInstance(ctx context.Context, conversationID, instanceID string) error
	ClearActiveInstance(ctx context.Context, conversationID string) error
}
