package dialog

import "github.com/kailas-cloud/converse/internal/domain/answer"

// OutcomeKind classifies how a turn ended.
type OutcomeKind string

const (
	// OutcomeAnswered means a final answer was delivered and the dialog ended.
	OutcomeAnswered OutcomeKind = "answered"
	// OutcomeNoAnswer means the knowledge base had nothing and the dialog ended.
	OutcomeNoAnswer OutcomeKind = "no_answer"
	// OutcomeNoMatch means the user rejected the offered candidates and the
	// dialog ended with the no-match acknowledgement.
	OutcomeNoMatch OutcomeKind = "no_match"
	// OutcomeDisambiguation means a disambiguation card was shown and the turn
	// ended awaiting the user's selection.
	OutcomeDisambiguation OutcomeKind = "disambiguation"
	// OutcomeFollowUp means a follow-up prompt card was shown and the turn
	// ended awaiting the user's pick.
	OutcomeFollowUp OutcomeKind = "follow_up"
)

// TurnOutcome is what one processed user message produced: the outcome kind,
// the final answer if any, and whether the dialog instance is still live.
type TurnOutcome struct {
	Kind          OutcomeKind
	Answer        *answer.Answer
	DialogPending bool
}

// Ended reports whether the dialog instance finished this turn.
func (o *TurnOutcome) Ended() bool { return !o.DialogPending }
