package dialog

import "github.com/kailas-cloud/converse/internal/domain/answer"

// Sentinel values for TurnState.PreviousAnswerID.
const (
	// NoPreviousAnswer means no follow-up chain is active.
	NoPreviousAnswer = 0
	// AnswerPending marks a query issued this turn but not yet resolved. The
	// value never survives into a PreviousAnswerID > 0 check.
	AnswerPending = -1
)

// TurnState is the explicit cross-turn record of one dialog instance. It is
// loaded at turn entry, threaded through the stages, and written back only
// after a stage completes. Never held in globals.
type TurnState struct {
	// PreviousAnswerID anchors the active follow-up prompt chain: 0 none,
	// >0 the answer whose prompts are live, -1 transient (just queried).
	PreviousAnswerID int
	// PromptMap maps follow-up display text to target answer ids. Empty unless
	// the previous answer carried follow-up prompts.
	PromptMap map[string]int
	// CurrentQuery is the raw user utterance driving the active turn.
	CurrentQuery string
	// Candidates holds the disambiguation set while a card is awaiting the
	// user's selection. Rebuilt from scratch every query otherwise.
	Candidates []answer.Answer
	// Options are the instance-owned query options, created at dialog start
	// and mutated by the orchestrator every turn.
	Options QueryOptions
}

// NewTurnState creates an empty state record.
func NewTurnState() TurnState {
	return TurnState{PreviousAnswerID: NoPreviousAnswer}
}

// PendingDisambiguation reports whether a prior turn left a disambiguation
// card awaiting the user's selection.
func (s *TurnState) PendingDisambiguation() bool {
	return len(s.Candidates) > 1
}

// PendingFollowUp reports whether a follow-up prompt chain is active.
func (s *TurnState) PendingFollowUp() bool {
	return s.PreviousAnswerID > 0
}

// ResolveFollowUp looks up the user's reply in the active prompt map by exact
// string match. A positive anchor with a cleared or absent map degrades
// silently to no match.
func (s *TurnState) ResolveFollowUp(userText string) (int, bool) {
	if !s.PendingFollowUp() || len(s.PromptMap) == 0 {
		return 0, false
	}
	id, ok := s.PromptMap[userText]
	return id, ok
}

// SetFollowUp persists an answer's prompt map and anchors the chain on its id.
func (s *TurnState) SetFollowUp(a answer.Answer) {
	m := make(map[string]int, len(a.Prompts()))
	for _, p := range a.Prompts() {
		m[p.DisplayText()] = p.TargetAnswerID()
	}
	s.PromptMap = m
	s.PreviousAnswerID = a.ID()
}

// ClearFollowUp removes the prompt map and its anchor.
func (s *TurnState) ClearFollowUp() {
	s.PromptMap = nil
	s.PreviousAnswerID = NoPreviousAnswer
}
