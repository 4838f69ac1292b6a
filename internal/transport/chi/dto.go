package chi

import (
	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	dispatchuc "github.com/kailas-cloud/converse/internal/usecase/dispatch"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest            = "bad_request"
	codeValidationFailed      = "validation_failed"
	codeAnsweringServiceError = "answering_service_error"
	codeRecognizerError       = "recognizer_error"
	codeSendFailed            = "send_failed"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type postMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type postMessageResponse struct {
	Route         string              `json:"route"`
	Outcome       string              `json:"outcome,omitempty"`
	DialogPending bool                `json:"dialog_pending"`
	AnswerID      int                 `json:"answer_id,omitempty"`
	Messages      []domdialog.Message `json:"messages"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func turnResultToWire(result dispatchuc.Result, messages []domdialog.Message) postMessageResponse {
	resp := postMessageResponse{
		Route:    string(result.Route),
		Messages: messages,
	}
	if resp.Messages == nil {
		resp.Messages = []domdialog.Message{}
	}
	if result.Outcome != nil {
		resp.Outcome = string(result.Outcome.Kind)
		resp.DialogPending = result.Outcome.DialogPending
		if result.Outcome.Answer != nil {
			resp.AnswerID = result.Outcome.Answer.ID()
		}
	}
	return resp
}
