package dialogstate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/converse/internal/domain/answer"
	"github.com/kailas-cloud/converse/internal/domain/dialog"
)

// promptRow is the JSON-serializable representation of a follow-up prompt.
type promptRow struct {
	DisplayText    string `json:"displayText"`
	TargetAnswerID int    `json:"targetAnswerId"`
}

// answerRow is the JSON-serializable representation of a candidate answer.
type answerRow struct {
	ID        int               `json:"id"`
	Text      string            `json:"text"`
	Score     float64           `json:"score"`
	Questions []string          `json:"questions,omitempty"`
	Prompts   []promptRow       `json:"prompts,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func answerToRow(a answer.Answer) answerRow {
	prompts := make([]promptRow, len(a.Prompts()))
	for i, p := range a.Prompts() {
		prompts[i] = promptRow{DisplayText: p.DisplayText(), TargetAnswerID: p.TargetAnswerID()}
	}
	return answerRow{
		ID: a.ID(), Text: a.Text(), Score: a.Score(),
		Questions: a.Questions(), Prompts: prompts, Metadata: a.Metadata(),
	}
}

func answerFromRow(row answerRow) answer.Answer {
	prompts := make([]answer.Prompt, len(row.Prompts))
	for i, p := range row.Prompts {
		prompts[i] = answer.NewPrompt(p.DisplayText, p.TargetAnswerID)
	}
	return answer.New(row.ID, row.Text, row.Score, row.Questions, prompts, row.Metadata)
}

// stateToHash converts a TurnState to a map for HSET. The prompt map and the
// pending candidates are nested mappings, stored as JSON fields.
func stateToHash(state dialog.TurnState) (map[string]string, error) {
	promptJSON, err := json.Marshal(state.PromptMap)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt map: %w", err)
	}

	rows := make([]answerRow, len(state.Candidates))
	for i, a := range state.Candidates {
		rows[i] = answerToRow(a)
	}
	candidatesJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}

	optionsJSON, err := json.Marshal(optionsToRow(state.Options))
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}

	return map[string]string{
		"previous_answer_id": strconv.Itoa(state.PreviousAnswerID),
		"prompt_map_json":    string(promptJSON),
		"current_query":      state.CurrentQuery,
		"candidates_json":    string(candidatesJSON),
		"options_json":       string(optionsJSON),
	}, nil
}

// stateFromHash hydrates a TurnState from an HGETALL result map.
func stateFromHash(m map[string]string) (dialog.TurnState, error) {
	state := dialog.NewTurnState()

	if v := m["previous_answer_id"]; v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return dialog.TurnState{}, fmt.Errorf("invalid previous_answer_id: %w", err)
		}
		state.PreviousAnswerID = id
	}

	if v := m["prompt_map_json"]; v != "" && v != "null" {
		if err := json.Unmarshal([]byte(v), &state.PromptMap); err != nil {
			return dialog.TurnState{}, fmt.Errorf("unmarshal prompt map: %w", err)
		}
	}

	state.CurrentQuery = m["current_query"]

	if v := m["candidates_json"]; v != "" && v != "null" {
		var rows []answerRow
		if err := json.Unmarshal([]byte(v), &rows); err != nil {
			return dialog.TurnState{}, fmt.Errorf("unmarshal candidates: %w", err)
		}
		if len(rows) > 0 {
			state.Candidates = make([]answer.Answer, len(rows))
			for i, row := range rows {
				state.Candidates[i] = answerFromRow(row)
			}
		}
	}

	if v := m["options_json"]; v != "" && v != "null" {
		var row optionsRow
		if err := json.Unmarshal([]byte(v), &row); err != nil {
			return dialog.TurnState{}, fmt.Errorf("unmarshal options: %w", err)
		}
		state.Options = optionsFromRow(row)
	}

	return state, nil
}

// optionsRow is the JSON-serializable representation of instance query options.
type optionsRow struct {
	ScoreThreshold  float64     `json:"scoreThreshold"`
	Top             int         `json:"top"`
	Filters         []filterRow `json:"filters,omitempty"`
	JoinOperator    string      `json:"joinOperator,omitempty"`
	RankerMode      string      `json:"rankerMode,omitempty"`
	IsTest          bool        `json:"isTest,omitempty"`
	TargetAnswerID  int         `json:"targetAnswerId,omitempty"`
	ContextAnswerID int         `json:"contextAnswerId,omitempty"`
}

type filterRow struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func optionsToRow(o dialog.QueryOptions) optionsRow {
	var filters []filterRow
	if len(o.Filters) > 0 {
		filters = make([]filterRow, len(o.Filters))
		for i, f := range o.Filters {
			filters[i] = filterRow{Name: f.Name, Value: f.Value}
		}
	}
	return optionsRow{
		ScoreThreshold:  o.ScoreThreshold,
		Top:             o.Top,
		Filters:         filters,
		JoinOperator:    string(o.JoinOperator),
		RankerMode:      string(o.RankerMode),
		IsTest:          o.IsTest,
		TargetAnswerID:  o.TargetAnswerID,
		ContextAnswerID: o.ContextAnswerID,
	}
}

func optionsFromRow(row optionsRow) dialog.QueryOptions {
	var filters []dialog.Filter
	if len(row.Filters) > 0 {
		filters = make([]dialog.Filter, len(row.Filters))
		for i, f := range row.Filters {
			filters[i] = dialog.Filter{Name: f.Name, Value: f.Value}
		}
	}
	return dialog.QueryOptions{
		ScoreThreshold:  row.ScoreThreshold,
		Top:             row.Top,
		Filters:         filters,
		JoinOperator:    dialog.JoinOperator(row.JoinOperator),
		RankerMode:      dialog.RankerMode(row.RankerMode),
		IsTest:          row.IsTest,
		TargetAnswerID:  row.TargetAnswerID,
		ContextAnswerID: row.ContextAnswerID,
	}
}
