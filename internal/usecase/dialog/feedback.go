package dialog

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/converse/internal/domain/answer"
	"github.com/kailas-cloud/converse/internal/domain/feedback"
)

// EvaluationKind classifies what the user's reply to a disambiguation card
// meant.
type EvaluationKind int

const (
	// EvalUnresolved means the reply matched neither a candidate nor the
	// no-match button; the pipeline restarts with the reply as a fresh query.
	EvalUnresolved EvaluationKind = iota
	// EvalSelected means the reply picked a candidate; a feedback record was
	// submitted.
	EvalSelected
	// EvalNoMatch means the reply was the configured no-match button text.
	EvalNoMatch
)

// Evaluation is the outcome of matching a reply against pending candidates.
type Evaluation struct {
	Kind     EvaluationKind
	Selected *answer.Answer
}

// Coordinator detects a user selection from a disambiguation card and reports
// it back to the training endpoint.
type Coordinator struct {
	trainer Trainer
}

// NewCoordinator creates a feedback coordinator.
func NewCoordinator(trainer Trainer) *Coordinator {
	return &Coordinator{trainer: trainer}
}

// Evaluate matches the reply against each candidate's primary source question,
// byte-for-byte. No case folding or whitespace normalization: a single
// character of difference yields EvalUnresolved. On a match, exactly one
// feedback record is submitted before returning; a train failure propagates
// and the selection is not reported as made.
func (c *Coordinator) Evaluate(
	ctx context.Context,
	candidates []answer.Answer,
	reply, noMatchText, userID, originalQuery string,
) (Evaluation, error) {
	if reply == noMatchText {
		return Evaluation{Kind: EvalNoMatch}, nil
	}

	for i := range candidates {
		if candidates[i].PrimaryQuestion() != reply {
			continue
		}

		record, err := feedback.NewRecord(userID, originalQuery, candidates[i].ID())
		if err != nil {
			return Evaluation{}, fmt.Errorf("build feedback record: %w", err)
		}
		if err := c.trainer.Train(ctx, []feedback.Record{record}); err != nil {
			return Evaluation{}, fmt.Errorf("submit feedback: %w", err)
		}
		return Evaluation{Kind: EvalSelected, Selected: &candidates[i]}, nil
	}

	return Evaluation{Kind: EvalUnresolved}, nil
}
