package dialog

import (
	"testing"

	"github.com/kailas-cloud/converse/internal/domain/answer"
)

type stubFilter struct {
	out []answer.Answer
}

func (s *stubFilter) LowScoreVariation(answers []answer.Answer) []answer.Answer {
	if s.out != nil {
		return s.out
	}
	return answers
}

func TestSelect_Disabled(t *testing.T) {
	sel := NewSelector(&stubFilter{})
	resp := answer.Response{Answers: []answer.Answer{
		plainAnswer(1, "a", 0.1, "q1"),
		plainAnswer(2, "b", 0.1, "q2"),
	}}

	if got := sel.Select(resp, 0.3); got != nil {
		t.Errorf("expected nil with active learning disabled, got %d candidates", len(got))
	}
}

func TestSelect_EmptyAnswers(t *testing.T) {
	sel := NewSelector(&stubFilter{})
	resp := answer.Response{ActiveLearningEnabled: true}

	if got := sel.Select(resp, 0.3); got != nil {
		t.Errorf("expected nil for empty answers, got %d candidates", len(got))
	}
}

func TestSelect_ConfidentTop(t *testing.T) {
	sel := NewSelector(&stubFilter{})
	resp := answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "a", 0.8, "q1"),
			plainAnswer(2, "b", 0.1, "q2"),
		},
		ActiveLearningEnabled: true,
	}

	if got := sel.Select(resp, 0.3); got != nil {
		t.Errorf("expected nil for confident top, got %d candidates", len(got))
	}
}

func TestSelect_SingleAfterFiltering(t *testing.T) {
	filter := &stubFilter{out: []answer.Answer{plainAnswer(1, "a", 0.2, "q1")}}
	sel := NewSelector(filter)
	resp := answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "a", 0.2, "q1"),
			plainAnswer(2, "b", 0.01, "q2"),
		},
		ActiveLearningEnabled: true,
	}

	if got := sel.Select(resp, 0.3); got != nil {
		t.Errorf("expected nil when filtering leaves one answer, got %d", len(got))
	}
}

func TestSelect_Candidates(t *testing.T) {
	sel := NewSelector(&stubFilter{})
	resp := answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "a", 0.2, "q1"),
			plainAnswer(2, "b", 0.18, "q2"),
			plainAnswer(3, "c", 0.17, "q3"),
		},
		ActiveLearningEnabled: true,
	}

	got := sel.Select(resp, 0.3)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].ID() != want {
			t.Errorf("candidate %d: got id %d, want %d", i, got[i].ID(), want)
		}
	}
}

func TestSelect_TopTieKeepsFirstSeen(t *testing.T) {
	sel := NewSelector(&stubFilter{})
	resp := answer.Response{
		Answers: []answer.Answer{
			plainAnswer(7, "a", 0.2, "q1"),
			plainAnswer(8, "b", 0.2, "q2"),
		},
		ActiveLearningEnabled: true,
	}

	got := sel.Select(resp, 0.3)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID() != 7 {
		t.Errorf("tie must keep first-seen order, got leading id %d", got[0].ID())
	}
}
