package dialog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/converse/internal/domain"
	"github.com/kailas-cloud/converse/internal/domain/answer"
	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	"github.com/kailas-cloud/converse/internal/metrics"
)

// stage indexes the turn pipeline. Stages run in order; the training and
// presentation stages may loop back to stageQuery carrying the reply as a
// fresh query.
type stage int

const (
	stageQuery stage = iota
	stageTraining
	stageFollowUp
	stagePresent
)

// Service drives the 4-stage turn pipeline and threads dialog state across
// turns. Exactly one turn of one conversation is processed at a time; state is
// written back only after a stage completes, never speculatively, so a failed
// external call leaves the instance at its last committed stage.
type Service struct {
	client   AnsweringClient
	states   StateStore
	selector *Selector
	feedback *Coordinator
	defaults domdialog.Options
	logger   *zap.Logger
}

// New creates a dialog orchestrator.
func New(client AnsweringClient, states StateStore, defaults domdialog.Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:   client,
		states:   states,
		selector: NewSelector(client),
		feedback: NewCoordinator(client),
		defaults: defaults,
		logger:   logger,
	}
}

// turn threads one user message through the stages.
type turn struct {
	sess    Session
	text    string
	sender  Sender
	state   domdialog.TurnState
	results []answer.Answer
}

// Turn processes one user message for a dialog instance and returns how the
// turn ended. The entry stage is derived from the persisted state: pending
// disambiguation candidates resume at the training stage, an active follow-up
// prompt resumes at the presentation stage, everything else starts a query.
func (s *Service) Turn(
	ctx context.Context, sess Session, userText string, sender Sender,
) (domdialog.TurnOutcome, error) {
	if strings.TrimSpace(userText) == "" {
		return domdialog.TurnOutcome{}, domain.ErrEmptyMessage
	}

	state, err := s.states.Load(ctx, sess.ConversationID, sess.InstanceID)
	if err != nil {
		return domdialog.TurnOutcome{}, fmt.Errorf("load dialog state: %w", err)
	}
	if state.Options.Top == 0 {
		// Fresh instance: bind the dialog-level defaults.
		state.Options = s.defaults.Query
	}

	t := &turn{sess: sess, text: userText, sender: sender, state: state}

	st := stageQuery
	switch {
	case t.state.PendingDisambiguation():
		st = stageTraining
	case t.state.PendingFollowUp():
		st = stagePresent
	}

	for {
		var (
			outcome *domdialog.TurnOutcome
			next    stage
		)
		switch st {
		case stageQuery:
			outcome, err = s.queryStage(ctx, t)
			next = stageTraining
		case stageTraining:
			outcome, next, err = s.trainingStage(ctx, t)
		case stageFollowUp:
			outcome, err = s.followUpStage(ctx, t)
			next = stagePresent
		case stagePresent:
			outcome, next, err = s.presentStage(ctx, t)
		}
		if err != nil {
			return domdialog.TurnOutcome{}, err
		}
		if outcome != nil {
			metrics.DialogTurnsTotal.WithLabelValues(string(outcome.Kind)).Inc()
			return *outcome, nil
		}
		st = next
	}
}

// queryStage issues the knowledge-base query, resolving any active follow-up
// prompt into the query context first. May end the turn with a disambiguation
// card; otherwise narrows the results to at most the top answer.
func (s *Service) queryStage(ctx context.Context, t *turn) (*domdialog.TurnOutcome, error) {
	opts := t.state.Options
	opts.TargetAnswerID = 0
	opts.ContextAnswerID = 0

	if t.state.PendingFollowUp() {
		opts.ContextAnswerID = t.state.PreviousAnswerID
		if id, ok := t.state.ResolveFollowUp(t.text); ok {
			opts.TargetAnswerID = id
		}
	}

	resp, err := s.client.Query(ctx, t.text, opts)
	if err != nil {
		return nil, fmt.Errorf("query knowledge base: %w", err)
	}

	t.state.CurrentQuery = t.text
	t.state.Options = opts
	t.state.PreviousAnswerID = domdialog.AnswerPending
	t.state.Candidates = nil
	t.results = resp.Answers

	if candidates := s.selector.Select(resp, opts.ScoreThreshold); len(candidates) > 0 {
		card := disambiguationCard(
			s.defaults.Response.CardTitle, s.defaults.Response.CardNoMatchText, candidates,
		)
		if err := t.sender.Send(ctx, card); err != nil {
			return nil, fmt.Errorf("send disambiguation card: %w: %w", domain.ErrSendFailed, err)
		}
		t.state.Candidates = candidates
		if err := s.save(ctx, t); err != nil {
			return nil, err
		}
		metrics.DisambiguationCardsTotal.Inc()
		s.logger.Debug("disambiguation card shown",
			zap.String("conversation_id", t.sess.ConversationID),
			zap.Int("candidates", len(candidates)),
		)
		return &domdialog.TurnOutcome{Kind: domdialog.OutcomeDisambiguation, DialogPending: true}, nil
	}

	if top, ok := resp.Top(); ok {
		t.results = []answer.Answer{top}
	} else {
		t.results = nil
	}
	return nil, nil
}

// trainingStage consumes a prior turn's disambiguation card. A pass-through
// when no card is pending.
func (s *Service) trainingStage(ctx context.Context, t *turn) (*domdialog.TurnOutcome, stage, error) {
	if !t.state.PendingDisambiguation() {
		return nil, stageFollowUp, nil
	}

	eval, err := s.feedback.Evaluate(
		ctx, t.state.Candidates, t.text,
		s.defaults.Response.CardNoMatchText, t.sess.UserID, t.state.CurrentQuery,
	)
	if err != nil {
		return nil, 0, err
	}

	switch eval.Kind {
	case EvalSelected:
		s.logger.Debug("disambiguation selection trained",
			zap.String("conversation_id", t.sess.ConversationID),
			zap.Int("answer_id", eval.Selected.ID()),
		)
		t.results = []answer.Answer{*eval.Selected}
		t.state.Candidates = nil
		return nil, stageFollowUp, nil
	case EvalNoMatch:
		outcome, err := s.endWithNoMatch(ctx, t)
		return outcome, 0, err
	default:
		// The reply matched neither a candidate nor the no-match button:
		// restart the pipeline with it as a fresh query.
		t.state.Candidates = nil
		return nil, stageQuery, nil
	}
}

// followUpStage shows the follow-up prompt card when the narrowed answer
// carries prompts, ending the turn until the user picks one.
func (s *Service) followUpStage(ctx context.Context, t *turn) (*domdialog.TurnOutcome, error) {
	if len(t.results) == 0 || !t.results[0].HasPrompts() {
		return nil, nil
	}

	a := t.results[0]
	if err := t.sender.Send(ctx, followUpCard(a)); err != nil {
		return nil, fmt.Errorf("send follow-up card: %w: %w", domain.ErrSendFailed, err)
	}
	t.state.SetFollowUp(a)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	metrics.FollowUpCardsTotal.Inc()
	s.logger.Debug("follow-up card shown",
		zap.String("conversation_id", t.sess.ConversationID),
		zap.Int("answer_id", a.ID()),
	)
	return &domdialog.TurnOutcome{
		Kind: domdialog.OutcomeFollowUp, Answer: &a, DialogPending: true,
	}, nil
}

// presentStage delivers the final answer or fallback and ends the dialog,
// unless an active follow-up anchor routes the reply back into a fresh query.
func (s *Service) presentStage(ctx context.Context, t *turn) (*domdialog.TurnOutcome, stage, error) {
	if t.text == s.defaults.Response.CardNoMatchText {
		outcome, err := s.endWithNoMatch(ctx, t)
		return outcome, 0, err
	}

	if t.state.PendingFollowUp() {
		// The reply did not pick a prompt: treat it as a fresh query against
		// the anchored context.
		return nil, stageQuery, nil
	}

	if len(t.results) > 0 {
		a := t.results[0]
		if err := t.sender.Send(ctx, answerMessage(a)); err != nil {
			return nil, 0, fmt.Errorf("send answer: %w: %w", domain.ErrSendFailed, err)
		}
		if err := s.end(ctx, t); err != nil {
			return nil, 0, err
		}
		return &domdialog.TurnOutcome{Kind: domdialog.OutcomeAnswered, Answer: &a}, 0, nil
	}

	if err := t.sender.Send(ctx, s.defaults.Response.NoAnswerMessage.Render()); err != nil {
		return nil, 0, fmt.Errorf("send no-answer message: %w: %w", domain.ErrSendFailed, err)
	}
	if err := s.end(ctx, t); err != nil {
		return nil, 0, err
	}
	return &domdialog.TurnOutcome{Kind: domdialog.OutcomeNoAnswer}, 0, nil
}

// endWithNoMatch acknowledges a no-match selection and ends the dialog,
// discarding any pending follow-up or training state.
func (s *Service) endWithNoMatch(ctx context.Context, t *turn) (*domdialog.TurnOutcome, error) {
	if err := t.sender.Send(ctx, s.defaults.Response.CardNoMatchResponse.Render()); err != nil {
		return nil, fmt.Errorf("send no-match acknowledgement: %w: %w", domain.ErrSendFailed, err)
	}
	if err := s.end(ctx, t); err != nil {
		return nil, err
	}
	return &domdialog.TurnOutcome{Kind: domdialog.OutcomeNoMatch}, nil
}

func (s *Service) save(ctx context.Context, t *turn) error {
	if err := s.states.Save(ctx, t.sess.ConversationID, t.sess.InstanceID, t.state); err != nil {
		return fmt.Errorf("save dialog state: %w", err)
	}
	return nil
}

func (s *Service) end(ctx context.Context, t *turn) error {
	if err := s.states.Clear(ctx, t.sess.ConversationID, t.sess.InstanceID); err != nil {
		return fmt.Errorf("clear dialog state: %w", err)
	}
	return nil
}
