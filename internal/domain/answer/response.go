package answer

// Response is one answering-service query result: the ranked answers plus
// whether the knowledge base has active learning enabled.
type Response struct {
	Answers               []Answer
	ActiveLearningEnabled bool
}

// Top returns the highest-scoring answer of the response.
func (r *Response) Top() (Answer, bool) {
	return Top(r.Answers)
}
