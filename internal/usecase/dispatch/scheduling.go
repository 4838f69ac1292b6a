package dispatch

import (
	"fmt"

	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	"github.com/kailas-cloud/converse/internal/domain/intent"
)

// Scheduling responder texts.
const (
	schedulingText       = "I can help you schedule an appointment."
	schedulingDatePrefix = "Requested time: "
)

// schedulingCard builds the static scheduling response. Pure formatting: any
// recognized datetime entity is echoed back, nothing is booked here.
func schedulingCard(entities []intent.Entity) domdialog.Message {
	text := schedulingText
	for _, e := range entities {
		if e.Type == "datetime" && e.Value != "" {
			text = fmt.Sprintf("%s %s%s", schedulingText, schedulingDatePrefix, e.Value)
			break
		}
	}
	return domdialog.Message{
		Text: text,
		Card: &domdialog.Card{
			Title:   "Schedule an appointment",
			Buttons: []string{"Book now", "Pick another time"},
		},
	}
}
