package qna

import "github.com/kailas-cloud/converse/internal/domain/answer"

// Wire types for the answering-service JSON API. Answer scores travel on a
// 0-100 scale and are normalized to 0-1 at the boundary.

type metadataPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type queryContext struct {
	PreviousAnswerID int `json:"previousAnswerId"`
}

type queryRequest struct {
	Question            string         `json:"question"`
	Top                 int            `json:"top,omitempty"`
	ScoreThreshold      float64        `json:"scoreThreshold,omitempty"`
	StrictFilters       []metadataPair `json:"strictFilters,omitempty"`
	FiltersJoinOperator string         `json:"strictFiltersCompoundOperationType,omitempty"`
	RankerType          string         `json:"rankerType,omitempty"`
	Context             *queryContext  `json:"context,omitempty"`
	AnswerID            int            `json:"qnaId,omitempty"`
	IsTest              bool           `json:"isTest,omitempty"`
}

type promptRow struct {
	DisplayText string `json:"displayText"`
	AnswerID    int    `json:"qnaId"`
}

type answerContext struct {
	Prompts []promptRow `json:"prompts"`
}

type answerRow struct {
	ID        int            `json:"id"`
	Answer    string         `json:"answer"`
	Score     float64        `json:"score"`
	Questions []string       `json:"questions"`
	Context   *answerContext `json:"context,omitempty"`
	Metadata  []metadataPair `json:"metadata,omitempty"`
}

func (row *answerRow) toDomain() answer.Answer {
	var prompts []answer.Prompt
	if row.Context != nil {
		prompts = make([]answer.Prompt, len(row.Context.Prompts))
		for i, p := range row.Context.Prompts {
			prompts[i] = answer.NewPrompt(p.DisplayText, p.AnswerID)
		}
	}

	var metadata map[string]string
	if len(row.Metadata) > 0 {
		metadata = make(map[string]string, len(row.Metadata))
		for _, m := range row.Metadata {
			metadata[m.Name] = m.Value
		}
	}

	return answer.New(row.ID, row.Answer, row.Score/100, row.Questions, prompts, metadata)
}

type queryResponse struct {
	Answers               []answerRow `json:"answers"`
	ActiveLearningEnabled bool        `json:"activeLearningEnabled"`
}

type feedbackRow struct {
	UserID       string `json:"userId"`
	UserQuestion string `json:"userQuestion"`
	AnswerID     int    `json:"qnaId"`
}

type trainRequest struct {
	FeedbackRecords []feedbackRow `json:"feedbackRecords"`
}
