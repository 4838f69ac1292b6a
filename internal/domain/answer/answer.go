package answer

// Prompt is a knowledge-base-declared follow-up suggestion attached to an answer.
type Prompt struct {
	displayText    string
	targetAnswerID int
}

// NewPrompt creates a follow-up prompt.
func NewPrompt(displayText string, targetAnswerID int) Prompt {
	return Prompt{displayText: displayText, targetAnswerID: targetAnswerID}
}

// DisplayText returns the text shown on the prompt button.
func (p *Prompt) DisplayText() string { return p.displayText }

// TargetAnswerID returns the answer id the prompt leads to.
func (p *Prompt) TargetAnswerID() int { return p.targetAnswerID }

// Answer is a single ranked knowledge-base result. Ephemeral: rebuilt from the
// service response every query, persisted only while a disambiguation card is
// awaiting the user's selection.
type Answer struct {
	id        int
	text      string
	score     float64
	questions []string
	prompts   []Prompt
	metadata  map[string]string
}

// New creates an answer.
func New(
	id int, text string, score float64,
	questions []string, prompts []Prompt, metadata map[string]string,
) Answer {
	return Answer{
		id: id, text: text, score: score,
		questions: questions, prompts: prompts, metadata: metadata,
	}
}

// ID returns the knowledge-base answer id.
func (a *Answer) ID() int { return a.id }

// Text returns the answer body.
func (a *Answer) Text() string { return a.text }

// Score returns the ranker confidence in [0,1].
func (a *Answer) Score() float64 { return a.score }

// Questions returns the source questions, primary first.
func (a *Answer) Questions() []string { return a.questions }

// PrimaryQuestion returns the first listed source question, or "" if none.
func (a *Answer) PrimaryQuestion() string {
	if len(a.questions) == 0 {
		return ""
	}
	return a.questions[0]
}

// Prompts returns the follow-up prompts in declaration order.
func (a *Answer) Prompts() []Prompt { return a.prompts }

// HasPrompts reports whether the answer carries follow-up prompts.
func (a *Answer) HasPrompts() bool { return len(a.prompts) > 0 }

// Metadata returns the answer metadata pairs.
func (a *Answer) Metadata() map[string]string { return a.metadata }

// Top returns the highest-scoring answer, preserving first-seen order on score
// ties (stable linear scan, no re-sort). ok is false for an empty slice.
func Top(answers []Answer) (Answer, bool) {
	if len(answers) == 0 {
		return Answer{}, false
	}
	top := answers[0]
	for _, a := range answers[1:] {
		if a.score > top.score {
			top = a
		}
	}
	return top, true
}
