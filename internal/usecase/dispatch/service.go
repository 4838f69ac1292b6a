package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	"github.com/kailas-cloud/converse/internal/domain/intent"
	dialoguc "github.com/kailas-cloud/converse/internal/usecase/dialog"
)

// DefaultIntentFloor is the confidence below which a recognized intent is
// ignored and the message falls through to the knowledge-base dialog.
const DefaultIntentFloor = 0.7

// Route names where a message ended up.
type Route string

const (
	// RouteDialog means the message entered the knowledge-base dialog.
	RouteDialog Route = "dialog"
	// RouteScheduling means the message was answered by the scheduling
	// responder.
	RouteScheduling Route = "scheduling"
)

// Result is the routing decision plus the dialog outcome when the message
// entered the dialog.
type Result struct {
	Route   Route
	Outcome *domdialog.TurnOutcome
}

// Service is the top-level message router: a pending dialog turn bypasses
// routing entirely; otherwise the intent recognizer decides between the
// scheduling responder and a fresh knowledge-base dialog instance.
type Service struct {
	dialog      DialogRunner
	convs       ConversationStore
	recognizer  Recognizer
	intentFloor float64
	logger      *zap.Logger
}

// New creates a dispatch service. recognizer may be nil, in which case every
// message enters the knowledge-base dialog.
func New(dialog DialogRunner, convs ConversationStore, recognizer Recognizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dialog:      dialog,
		convs:       convs,
		recognizer:  recognizer,
		intentFloor: DefaultIntentFloor,
		logger:      logger,
	}
}

// WithIntentFloor overrides the minimum intent confidence.
func (s *Service) WithIntentFloor(floor float64) *Service {
	if floor > 0 && floor <= 1 {
		s.intentFloor = floor
	}
	return s
}

// Handle routes one inbound message.
func (s *Service) Handle(
	ctx context.Context, conversationID, userID, text string, sender dialoguc.Sender,
) (Result, error) {
	instanceID, active, err := s.convs.ActiveInstance(ctx, conversationID)
	if err != nil {
		return Result{}, err
	}
	if active {
		// A card is awaiting the user's reply: the message goes straight to
		// the dialog, no intent recognition.
		return s.runTurn(ctx, conversationID, instanceID, userID, text, sender)
	}

	if s.recognizer != nil {
		rec, err := s.recognizer.Recognize(ctx, text)
		if err != nil {
			return Result{}, fmt.Errorf("recognize intent: %w", err)
		}
		if rec.TopIntent() == intent.ScheduleAppointment && rec.Confidence() >= s.intentFloor {
			if err := sender.Send(ctx, schedulingCard(rec.Entities())); err != nil {
				return Result{}, fmt.Errorf("send scheduling card: %w", err)
			}
			s.logger.Debug("message routed to scheduling",
				zap.String("conversation_id", conversationID),
				zap.Float64("confidence", rec.Confidence()),
			)
			return Result{Route: RouteScheduling}, nil
		}
	}

	instanceID = uuid.NewString()
	if err := s.convs.SetActiveInstance(ctx, conversationID, instanceID); err != nil {
		return Result{}, err
	}
	return s.runTurn(ctx, conversationID, instanceID, userID, text, sender)
}

func (s *Service) runTurn(
	ctx context.Context, conversationID, instanceID, userID, text string, sender dialoguc.Sender,
) (Result, error) {
	sess := dialoguc.Session{
		ConversationID: conversationID,
		InstanceID:     instanceID,
		UserID:         userID,
	}
	outcome, err := s.dialog.Turn(ctx, sess, text, sender)
	if err != nil {
		return Result{}, fmt.Errorf("dialog turn: %w", err)
	}
	if outcome.Ended() {
		if err := s.convs.ClearActiveInstance(ctx, conversationID); err != nil {
			return Result{}, err
		}
	}
	return Result{Route: RouteDialog, Outcome: &outcome}, nil
}
