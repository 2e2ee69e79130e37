package interview

// Window is the bounded view of an interview handed to the reasoning
// service. Pairs carry text only; native timestamps never cross this
// boundary since the consumer is a text interface.
type Window struct {
	DomainQuestions []string     `json:"domain_questions"`
	PreviousPairs   []WindowPair `json:"previous_pairs"`
}

// WindowPair is a QAPair reduced to its textual fields.
type WindowPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
