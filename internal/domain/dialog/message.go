package dialog

// TemplateKind discriminates message template variants.
type TemplateKind string

const (
	// TemplateText is a plain text message.
	TemplateText TemplateKind = "text"
	// TemplateCard is a hero-style card with a title and button row.
	TemplateCard TemplateKind = "card"
)

// MessageTemplate is a small tagged union over plain text and structured card
// templates, resolved once when options are bound.
type MessageTemplate struct {
	kind  TemplateKind
	text  string
	title string
}

// TextTemplate creates a plain text template.
func TextTemplate(text string) MessageTemplate {
	return MessageTemplate{kind: TemplateText, text: text}
}

// CardTemplate creates a card template with the given title and body text.
func CardTemplate(title, text string) MessageTemplate {
	return MessageTemplate{kind: TemplateCard, title: title, text: text}
}

// Kind returns the template variant.
func (t *MessageTemplate) Kind() TemplateKind { return t.kind }

// IsZero reports whether the template is unset.
func (t *MessageTemplate) IsZero() bool { return t.kind == "" }

// Render produces the outbound message for the template.
func (t *MessageTemplate) Render() Message {
	if t.kind == TemplateCard {
		return Message{Text: t.text, Card: &Card{Title: t.title}}
	}
	return Message{Text: t.text}
}

// Card is the structured part of an outbound message: a title and a row of
// suggested-reply buttons.
type Card struct {
	Title   string   `json:"title,omitempty"`
	Buttons []string `json:"buttons,omitempty"`
}

// Message is one outbound activity. Text is always present; Card is set for
// disambiguation and follow-up prompts.
type Message struct {
	Text string `json:"text"`
	Card *Card  `json:"card,omitempty"`
}
