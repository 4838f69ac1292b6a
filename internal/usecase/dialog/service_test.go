package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/converse/internal/domain"
	"github.com/kailas-cloud/converse/internal/domain/answer"
	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	"github.com/kailas-cloud/converse/internal/domain/feedback"
)

type mockClient struct {
	resp      answer.Response
	queryErr  error
	queries   []domdialog.QueryOptions
	questions []string
	trained   [][]feedback.Record
	trainErr  error
	filterFn  func([]answer.Answer) []answer.Answer
}

func (m *mockClient) Query(
	_ context.Context, question string, opts domdialog.QueryOptions,
) (answer.Response, error) {
	m.questions = append(m.questions, question)
	m.queries = append(m.queries, opts)
	if m.queryErr != nil {
		return answer.Response{}, m.queryErr
	}
	return m.resp, nil
}

func (m *mockClient) LowScoreVariation(answers []answer.Answer) []answer.Answer {
	if m.filterFn != nil {
		return m.filterFn(answers)
	}
	return answers
}

func (m *mockClient) Train(_ context.Context, records []feedback.Record) error {
	if m.trainErr != nil {
		return m.trainErr
	}
	m.trained = append(m.trained, records)
	return nil
}

type mockStates struct {
	states   map[string]domdialog.TurnState
	loadErr  error
	saveErr  error
	saves    int
	clears   int
}

func newMockStates() *mockStates {
	return &mockStates{states: make(map[string]domdialog.TurnState)}
}

func (m *mockStates) Load(_ context.Context, conversationID, instanceID string) (domdialog.TurnState, error) {
	if m.loadErr != nil {
		return domdialog.TurnState{}, m.loadErr
	}
	st, ok := m.states[conversationID+"/"+instanceID]
	if !ok {
		return domdialog.NewTurnState(), nil
	}
	return st, nil
}

func (m *mockStates) Save(_ context.Context, conversationID, instanceID string, state domdialog.TurnState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.states[conversationID+"/"+instanceID] = state
	return nil
}

func (m *mockStates) Clear(_ context.Context, conversationID, instanceID string) error {
	m.clears++
	delete(m.states, conversationID+"/"+instanceID)
	return nil
}

type mockSender struct {
	messages []domdialog.Message
	sendErr  error
}

func (m *mockSender) Send(_ context.Context, msg domdialog.Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.messages = append(m.messages, msg)
	return nil
}

func testSession() Session {
	return Session{ConversationID: "conv-1", InstanceID: "inst-1", UserID: "user-1"}
}

func testDefaults(t *testing.T) domdialog.Options {
	t.Helper()
	opts, err := domdialog.NewOptions(domdialog.QueryOptions{}, domdialog.ResponseOptions{})
	if err != nil {
		t.Fatalf("build options: %v", err)
	}
	return opts
}

func plainAnswer(id int, text string, score float64, question string) answer.Answer {
	return answer.New(id, text, score, []string{question}, nil, nil)
}

func promptedAnswer(id int, text string, score float64, question string, prompts ...answer.Prompt) answer.Answer {
	return answer.New(id, text, score, []string{question}, prompts, nil)
}

func TestTurn_EmptyText(t *testing.T) {
	svc := New(&mockClient{}, newMockStates(), testDefaults(t), nil)

	_, err := svc.Turn(context.Background(), testSession(), "   ", &mockSender{})
	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestTurn_ConfidentAnswer(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{plainAnswer(1, "The sky is blue.", 0.9, "why is the sky blue")},
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	outcome, err := svc.Turn(context.Background(), testSession(), "why is the sky blue", sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeAnswered {
		t.Errorf("expected %q, got %q", domdialog.OutcomeAnswered, outcome.Kind)
	}
	if outcome.DialogPending {
		t.Error("expected dialog ended")
	}
	if len(sender.messages) != 1 || sender.messages[0].Text != "The sky is blue." {
		t.Errorf("unexpected messages: %+v", sender.messages)
	}
	if states.clears != 1 {
		t.Errorf("expected 1 state clear, got %d", states.clears)
	}
}

func TestTurn_NoAnswers(t *testing.T) {
	client := &mockClient{resp: answer.Response{}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	outcome, err := svc.Turn(context.Background(), testSession(), "gibberish", sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeNoAnswer {
		t.Errorf("expected %q, got %q", domdialog.OutcomeNoAnswer, outcome.Kind)
	}
	if len(sender.messages) != 1 || sender.messages[0].Text != domdialog.DefaultNoAnswerMessage {
		t.Errorf("unexpected messages: %+v", sender.messages)
	}
	if states.clears != 1 {
		t.Errorf("expected 1 state clear, got %d", states.clears)
	}
}

func TestTurn_LowScoreDisambiguation(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "answer one", 0.25, "question one"),
			plainAnswer(2, "answer two", 0.22, "question two"),
		},
		ActiveLearningEnabled: true,
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	outcome, err := svc.Turn(context.Background(), testSession(), "ambiguous", sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeDisambiguation {
		t.Fatalf("expected %q, got %q", domdialog.OutcomeDisambiguation, outcome.Kind)
	}
	if !outcome.DialogPending {
		t.Error("expected dialog pending")
	}

	if len(sender.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.messages))
	}
	card := sender.messages[0].Card
	if card == nil {
		t.Fatal("expected a card")
	}
	if card.Title != domdialog.DefaultCardTitle {
		t.Errorf("card title: got %q, want %q", card.Title, domdialog.DefaultCardTitle)
	}
	wantButtons := []string{"question one", "question two", domdialog.DefaultCardNoMatchText}
	if len(card.Buttons) != len(wantButtons) {
		t.Fatalf("buttons: got %v, want %v", card.Buttons, wantButtons)
	}
	for i := range wantButtons {
		if card.Buttons[i] != wantButtons[i] {
			t.Errorf("button %d: got %q, want %q", i, card.Buttons[i], wantButtons[i])
		}
	}

	saved := states.states["conv-1/inst-1"]
	if len(saved.Candidates) != 2 {
		t.Errorf("expected 2 saved candidates, got %d", len(saved.Candidates))
	}
	if saved.CurrentQuery != "ambiguous" {
		t.Errorf("expected saved query %q, got %q", "ambiguous", saved.CurrentQuery)
	}
}

func TestTurn_ScoreAboveThreshold_NoDisambiguation(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "answer one", 0.31, "question one"),
			plainAnswer(2, "answer two", 0.30, "question two"),
		},
		ActiveLearningEnabled: true,
	}}
	sender := &mockSender{}
	svc := New(client, newMockStates(), testDefaults(t), nil)

	outcome, err := svc.Turn(context.Background(), testSession(), "q", sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeAnswered {
		t.Errorf("expected %q, got %q", domdialog.OutcomeAnswered, outcome.Kind)
	}
}

func TestTurn_ActiveLearningDisabled_NoDisambiguation(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "answer one", 0.2, "question one"),
			plainAnswer(2, "answer two", 0.19, "question two"),
		},
	}}
	sender := &mockSender{}
	svc := New(client, newMockStates(), testDefaults(t), nil)

	outcome, err := svc.Turn(context.Background(), testSession(), "q", sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeAnswered {
		t.Errorf("expected %q, got %q", domdialog.OutcomeAnswered, outcome.Kind)
	}
	if outcome.Answer == nil || outcome.Answer.ID() != 1 {
		t.Errorf("expected top answer 1, got %+v", outcome.Answer)
	}
}

func TestTurn_DisambiguationSelection_Trains(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "answer one", 0.25, "question one"),
			plainAnswer(2, "answer two", 0.22, "question two"),
		},
		ActiveLearningEnabled: true,
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	if _, err := svc.Turn(context.Background(), testSession(), "ambiguous", sender); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	outcome, err := svc.Turn(context.Background(), testSession(), "question two", sender)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeAnswered {
		t.Fatalf("expected %q, got %q", domdialog.OutcomeAnswered, outcome.Kind)
	}
	if outcome.Answer == nil || outcome.Answer.ID() != 2 {
		t.Errorf("expected answer 2, got %+v", outcome.Answer)
	}

	if len(client.trained) != 1 || len(client.trained[0]) != 1 {
		t.Fatalf("expected exactly one feedback record, got %+v", client.trained)
	}
	rec := client.trained[0][0]
	if rec.AnswerID() != 2 {
		t.Errorf("feedback answer id: got %d, want 2", rec.AnswerID())
	}
	if rec.UserQuestion() != "ambiguous" {
		t.Errorf("feedback question: got %q, want %q", rec.UserQuestion(), "ambiguous")
	}
	if rec.UserID() != "user-1" {
		t.Errorf("feedback user: got %q, want %q", rec.UserID(), "user-1")
	}
}

func TestTurn_DisambiguationSelection_ExactMatchOnly(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "answer one", 0.25, "Question One"),
			plainAnswer(2, "answer two", 0.22, "Question Two"),
		},
		ActiveLearningEnabled: true,
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	if _, err := svc.Turn(context.Background(), testSession(), "ambiguous", sender); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	// Case differs: not a selection. The reply restarts as a fresh query,
	// which again yields a disambiguation card.
	outcome, err := svc.Turn(context.Background(), testSession(), "question two", sender)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if len(client.trained) != 0 {
		t.Errorf("expected no training, got %+v", client.trained)
	}
	if outcome.Kind != domdialog.OutcomeDisambiguation {
		t.Errorf("expected %q, got %q", domdialog.OutcomeDisambiguation, outcome.Kind)
	}
	if len(client.questions) != 2 || client.questions[1] != "question two" {
		t.Errorf("expected restart query with reply text, got %v", client.questions)
	}
}

func TestTurn_DisambiguationNoMatch(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "answer one", 0.25, "question one"),
			plainAnswer(2, "answer two", 0.22, "question two"),
		},
		ActiveLearningEnabled: true,
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	if _, err := svc.Turn(context.Background(), testSession(), "ambiguous", sender); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	outcome, err := svc.Turn(context.Background(), testSession(), domdialog.DefaultCardNoMatchText, sender)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeNoMatch {
		t.Errorf("expected %q, got %q", domdialog.OutcomeNoMatch, outcome.Kind)
	}
	last := sender.messages[len(sender.messages)-1]
	if last.Text != domdialog.DefaultCardNoMatchResponse {
		t.Errorf("expected no-match acknowledgement, got %q", last.Text)
	}
	if len(client.trained) != 0 {
		t.Errorf("expected no training on no-match, got %+v", client.trained)
	}
	if states.clears != 1 {
		t.Errorf("expected state cleared, got %d clears", states.clears)
	}
}

func TestTurn_FollowUpCard(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			promptedAnswer(10, "We are open 9-5.", 0.8, "opening hours",
				answer.NewPrompt("Weekends?", 11),
				answer.NewPrompt("Holidays?", 12),
			),
		},
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	outcome, err := svc.Turn(context.Background(), testSession(), "opening hours", sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeFollowUp {
		t.Fatalf("expected %q, got %q", domdialog.OutcomeFollowUp, outcome.Kind)
	}
	if !outcome.DialogPending {
		t.Error("expected dialog pending")
	}

	if len(sender.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.messages))
	}
	msg := sender.messages[0]
	if msg.Text != "We are open 9-5." {
		t.Errorf("card text: got %q", msg.Text)
	}
	if msg.Card == nil || len(msg.Card.Buttons) != 2 {
		t.Fatalf("expected 2 prompt buttons, got %+v", msg.Card)
	}
	if msg.Card.Buttons[0] != "Weekends?" || msg.Card.Buttons[1] != "Holidays?" {
		t.Errorf("unexpected buttons: %v", msg.Card.Buttons)
	}

	saved := states.states["conv-1/inst-1"]
	if saved.PreviousAnswerID != 10 {
		t.Errorf("expected anchor 10, got %d", saved.PreviousAnswerID)
	}
	if saved.PromptMap["Weekends?"] != 11 || saved.PromptMap["Holidays?"] != 12 {
		t.Errorf("unexpected prompt map: %v", saved.PromptMap)
	}
}

func TestTurn_FollowUpPromptPicked(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			promptedAnswer(10, "We are open 9-5.", 0.8, "opening hours",
				answer.NewPrompt("Weekends?", 11),
			),
		},
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	if _, err := svc.Turn(context.Background(), testSession(), "opening hours", sender); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	client.resp = answer.Response{
		Answers: []answer.Answer{plainAnswer(11, "Closed on weekends.", 0.9, "weekend hours")},
	}

	outcome, err := svc.Turn(context.Background(), testSession(), "Weekends?", sender)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeAnswered {
		t.Errorf("expected %q, got %q", domdialog.OutcomeAnswered, outcome.Kind)
	}

	// The prompt pick must carry the anchor as context and the prompt's
	// target answer id into the second query.
	if len(client.queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(client.queries))
	}
	second := client.queries[1]
	if second.ContextAnswerID != 10 {
		t.Errorf("context answer id: got %d, want 10", second.ContextAnswerID)
	}
	if second.TargetAnswerID != 11 {
		t.Errorf("target answer id: got %d, want 11", second.TargetAnswerID)
	}
}

func TestTurn_FollowUpFreeText(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			promptedAnswer(10, "We are open 9-5.", 0.8, "opening hours",
				answer.NewPrompt("Weekends?", 11),
			),
		},
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	if _, err := svc.Turn(context.Background(), testSession(), "opening hours", sender); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	client.resp = answer.Response{
		Answers: []answer.Answer{plainAnswer(20, "Parking is free.", 0.9, "parking")},
	}

	outcome, err := svc.Turn(context.Background(), testSession(), "what about parking", sender)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if outcome.Kind != domdialog.OutcomeAnswered {
		t.Errorf("expected %q, got %q", domdialog.OutcomeAnswered, outcome.Kind)
	}

	second := client.queries[1]
	if second.ContextAnswerID != 10 {
		t.Errorf("context answer id: got %d, want 10", second.ContextAnswerID)
	}
	if second.TargetAnswerID != 0 {
		t.Errorf("target answer id: got %d, want 0", second.TargetAnswerID)
	}
}

func TestTurn_QueryErrorLeavesStateUntouched(t *testing.T) {
	client := &mockClient{queryErr: errors.New("boom")}
	states := newMockStates()
	svc := New(client, states, testDefaults(t), nil)

	_, err := svc.Turn(context.Background(), testSession(), "q", &mockSender{})
	if err == nil {
		t.Fatal("expected error")
	}
	if states.saves != 0 || states.clears != 0 {
		t.Errorf("expected no state writes, got saves=%d clears=%d", states.saves, states.clears)
	}
}

func TestTurn_TrainErrorPropagates(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "answer one", 0.25, "question one"),
			plainAnswer(2, "answer two", 0.22, "question two"),
		},
		ActiveLearningEnabled: true,
	}}
	states := newMockStates()
	sender := &mockSender{}
	svc := New(client, states, testDefaults(t), nil)

	if _, err := svc.Turn(context.Background(), testSession(), "ambiguous", sender); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	client.trainErr = errors.New("train down")
	if _, err := svc.Turn(context.Background(), testSession(), "question one", sender); err == nil {
		t.Fatal("expected train error to propagate")
	}
}

func TestTurn_SendErrorPropagates(t *testing.T) {
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{plainAnswer(1, "a", 0.9, "q")},
	}}
	svc := New(client, newMockStates(), testDefaults(t), nil)

	sender := &mockSender{sendErr: errors.New("channel closed")}
	_, err := svc.Turn(context.Background(), testSession(), "q", sender)
	if err == nil {
		t.Fatal("expected send error to propagate")
	}
	if !errors.Is(err, domain.ErrSendFailed) {
		t.Errorf("expected ErrSendFailed, got %v", err)
	}
}

func TestTurn_ThresholdBoundaryInclusive(t *testing.T) {
	// A top score exactly at the threshold still counts as low confidence.
	client := &mockClient{resp: answer.Response{
		Answers: []answer.Answer{
			plainAnswer(1, "a", domdialog.DefaultScoreThreshold, "q1"),
			plainAnswer(2, "b", 0.25, "q2"),
		},
		ActiveLearningEnabled: true,
	}}
	sender := &mockSender{}
	svc := New(client, newMockStates(), testDefaults(t), nil)

	outcome, err := svc.Turn(context.Background(), testSession(), "q", sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != domdialog.OutcomeDisambiguation {
		t.Errorf("expected %q, got %q", domdialog.OutcomeDisambiguation, outcome.Kind)
	}
}
