package dialog

import "fmt"

// Ranking and filtering defaults for knowledge-base queries.
const (
	// DefaultScoreThreshold is the low-confidence threshold below which
	// disambiguation may be offered.
	DefaultScoreThreshold = 0.3
	// DefaultTop is the default number of ranked answers requested per query.
	DefaultTop = 3
)

// Default response texts, overridable per dialog via config.
const (
	DefaultCardTitle           = "Did you mean:"
	DefaultCardNoMatchText     = "None of the above."
	DefaultCardNoMatchResponse = "Thanks for the feedback."
	DefaultNoAnswerMessage     = "No answers found in the knowledge base."
)

// JoinOperator combines metadata filters.
type JoinOperator string

const (
	// JoinAnd requires all filters to match.
	JoinAnd JoinOperator = "AND"
	// JoinOr requires any filter to match.
	JoinOr JoinOperator = "OR"
)

// RankerMode selects the knowledge-base ranking strategy.
type RankerMode string

const (
	// RankerDefault ranks on questions and answer text.
	RankerDefault RankerMode = "default"
	// RankerQuestionOnly ranks on source questions only.
	RankerQuestionOnly RankerMode = "questionOnly"
)

// IsValid reports whether the ranker mode is known.
func (m RankerMode) IsValid() bool {
	return m == RankerDefault || m == RankerQuestionOnly
}

// Filter is a single metadata name/value constraint.
type Filter struct {
	Name  string
	Value string
}

// QueryOptions parameterize one knowledge-base query. Mutated every turn by the
// orchestrator: TargetAnswerID and ContextAnswerID carry follow-up chaining
// state into the ranker and are reset at query-stage entry.
type QueryOptions struct {
	ScoreThreshold  float64
	Top             int
	Filters         []Filter
	JoinOperator    JoinOperator
	RankerMode      RankerMode
	IsTest          bool
	TargetAnswerID  int
	ContextAnswerID int
}

// Validate checks option ranges.
func (o *QueryOptions) Validate() error {
	if o.ScoreThreshold < 0 || o.ScoreThreshold > 1 {
		return fmt.Errorf("score threshold must be between 0 and 1, got %g", o.ScoreThreshold)
	}
	if o.Top <= 0 {
		return fmt.Errorf("top must be positive, got %d", o.Top)
	}
	if o.RankerMode != "" && !o.RankerMode.IsValid() {
		return fmt.Errorf("invalid ranker mode %q", o.RankerMode)
	}
	switch o.JoinOperator {
	case "", JoinAnd, JoinOr:
	default:
		return fmt.Errorf("invalid join operator %q", o.JoinOperator)
	}
	return nil
}

// ResponseOptions hold the dialog's user-facing texts. Templates are bound once
// at construction, not resolved per turn.
type ResponseOptions struct {
	CardTitle           string
	CardNoMatchText     string
	NoAnswerMessage     MessageTemplate
	CardNoMatchResponse MessageTemplate
}

// Options is the per-dialog-instance option record: created at dialog start,
// destroyed at dialog end, owned exclusively by the dialog instance.
type Options struct {
	Query    QueryOptions
	Response ResponseOptions
}

// NewOptions builds a validated option record, filling unset fields with
// defaults.
func NewOptions(query QueryOptions, response ResponseOptions) (Options, error) {
	if query.ScoreThreshold == 0 {
		query.ScoreThreshold = DefaultScoreThreshold
	}
	if query.Top == 0 {
		query.Top = DefaultTop
	}
	if query.RankerMode == "" {
		query.RankerMode = RankerDefault
	}
	if query.JoinOperator == "" {
		query.JoinOperator = JoinAnd
	}
	if err := query.Validate(); err != nil {
		return Options{}, err
	}

	if response.CardTitle == "" {
		response.CardTitle = DefaultCardTitle
	}
	if response.CardNoMatchText == "" {
		response.CardNoMatchText = DefaultCardNoMatchText
	}
	if response.NoAnswerMessage.IsZero() {
		response.NoAnswerMessage = TextTemplate(DefaultNoAnswerMessage)
	}
	if response.CardNoMatchResponse.IsZero() {
		response.CardNoMatchResponse = TextTemplate(DefaultCardNoMatchResponse)
	}

	return Options{Query: query, Response: response}, nil
}
