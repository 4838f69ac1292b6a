package qna

import "github.com/kailas-cloud/converse/internal/domain/answer"

// Low-score variation band constants. Comparisons run on a 0-100 score scale.
const (
	minimumScoreForLowScoreVariation = 20.0
	previousLowScoreVariationFactor  = 0.7
	maxLowScoreVariationFactor       = 1.0
	maximumScoreForLowScoreVariation = 95.0
)

// LowScoreVariation filters a ranked result set to the answers close enough to
// the top score that disambiguation is warranted. A top score above 95 (0-100
// scale) is confident enough that only the top answer survives. Otherwise a
// single linear pass keeps each answer within the variation band of both the
// previously kept answer and the top answer, preserving rank order.
func (c *Client) LowScoreVariation(answers []answer.Answer) []answer.Answer {
	if len(answers) <= 1 {
		return answers
	}

	topScore := answers[0].Score() * 100
	if topScore > maximumScoreForLowScoreVariation {
		return answers[:1]
	}

	filtered := make([]answer.Answer, 0, len(answers))
	prevScore := topScore
	for _, a := range answers {
		s := a.Score() * 100
		if withinVariation(prevScore, s, previousLowScoreVariationFactor) &&
			withinVariation(topScore, s, maxLowScoreVariationFactor) {
			prevScore = s
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func withinVariation(prevScore, currentScore, factor float64) bool {
	return prevScore-currentScore < factor*minimumScoreForLowScoreVariation
}
