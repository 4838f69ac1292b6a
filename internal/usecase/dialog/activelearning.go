package dialog

import "github.com/kailas-cloud/converse/internal/domain/answer"

// Selector decides when ambiguous low-confidence answers require user
// disambiguation.
type Selector struct {
	filter VariationFilter
}

// NewSelector creates an active-learning selector.
func NewSelector(filter VariationFilter) *Selector {
	return &Selector{filter: filter}
}

// Select returns the disambiguation candidates, or nil when the turn should
// proceed with the top answer. Disambiguation triggers only when all three
// hold: the top score is at or below the low-confidence threshold, the service
// reports active learning enabled for the knowledge base, and at least two
// answers remain after low-score variation filtering. Ties for the top answer
// keep first-seen order. Zero candidates always yield nil (no-answer path).
func (s *Selector) Select(resp answer.Response, threshold float64) []answer.Answer {
	if !resp.ActiveLearningEnabled {
		return nil
	}
	top, ok := resp.Top()
	if !ok {
		return nil
	}
	if top.Score() > threshold {
		return nil
	}
	filtered := s.filter.LowScoreVariation(resp.Answers)
	if len(filtered) < 2 {
		return nil
	}
	return filtered
}
