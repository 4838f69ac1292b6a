package dialog

import (
	"github.com/kailas-cloud/converse/internal/domain/answer"
	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
)

// Pure message formatting. No state, no retries: send failures belong to the
// caller.

// disambiguationCard builds the card offering close-scoring candidates. Each
// button carries a candidate's primary source question; the final button is
// the configured no-match text.
func disambiguationCard(title, noMatchText string, candidates []answer.Answer) domdialog.Message {
	buttons := make([]string, 0, len(candidates)+1)
	for i := range candidates {
		if q := candidates[i].PrimaryQuestion(); q != "" {
			buttons = append(buttons, q)
		}
	}
	buttons = append(buttons, noMatchText)

	return domdialog.Message{
		Text: title,
		Card: &domdialog.Card{Title: title, Buttons: buttons},
	}
}

// followUpCard builds the answer message with its follow-up prompts as
// suggested replies, in declaration order.
func followUpCard(a answer.Answer) domdialog.Message {
	prompts := a.Prompts()
	buttons := make([]string, len(prompts))
	for i := range prompts {
		buttons[i] = prompts[i].DisplayText()
	}

	return domdialog.Message{
		Text: a.Text(),
		Card: &domdialog.Card{Buttons: buttons},
	}
}

// answerMessage builds the final plain answer.
func answerMessage(a answer.Answer) domdialog.Message {
	return domdialog.Message{Text: a.Text()}
}
