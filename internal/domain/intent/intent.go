package intent

// Known intents emitted by the recognizer.
const (
	// ScheduleAppointment routes to the scheduling responder.
	ScheduleAppointment = "scheduleAppointment"
	// AskQuestion routes into the knowledge-base dialog.
	AskQuestion = "askQuestion"
	// None means the recognizer found no applicable intent.
	None = "none"
)

// Entity is one extracted span from the utterance.
type Entity struct {
	Type  string
	Value string
}

// Recognition is the ranked top intent plus extracted entities.
type Recognition struct {
	topIntent  string
	confidence float64
	entities   []Entity
}

// NewRecognition creates a recognition result.
func NewRecognition(topIntent string, confidence float64, entities []Entity) Recognition {
	if topIntent == "" {
		topIntent = None
	}
	return Recognition{topIntent: topIntent, confidence: confidence, entities: entities}
}

// TopIntent returns the highest-ranked intent name.
func (r *Recognition) TopIntent() string { return r.topIntent }

// Confidence returns the top intent confidence in [0,1].
func (r *Recognition) Confidence() float64 { return r.confidence }

// Entities returns the extracted entities in recognizer order.
func (r *Recognition) Entities() []Entity { return r.entities }
