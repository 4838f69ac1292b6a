package feedback

import "fmt"

// Record is one training feedback entry: the user picked an answer from a
// disambiguation card. Write-once, sent to the train endpoint, never stored.
type Record struct {
	userID       string
	userQuestion string
	answerID     int
}

// NewRecord creates a validated feedback record.
func NewRecord(userID, userQuestion string, answerID int) (Record, error) {
	if userQuestion == "" {
		return Record{}, fmt.Errorf("user question is required")
	}
	if answerID <= 0 {
		return Record{}, fmt.Errorf("answer id must be positive, got %d", answerID)
	}
	return Record{userID: userID, userQuestion: userQuestion, answerID: answerID}, nil
}

// UserID returns the id of the user who made the selection.
func (r *Record) UserID() string { return r.userID }

// UserQuestion returns the original query that produced the candidates.
func (r *Record) UserQuestion() string { return r.userQuestion }

// AnswerID returns the selected answer id.
func (r *Record) AnswerID() int { return r.answerID }
