package interview

// Decision is the structured intent extracted from the reasoning service:
// either the next question to ask, or a signal that the interview is
// complete, optionally with a visit classification.
type Decision struct {
	NextQuestion   string `json:"next_question,omitempty"`
	Done           bool   `json:"done"`
	Classification string `json:"classification,omitempty"`
}

// FailClosed is the safe terminal decision used when the reasoning service
// returns output that cannot be interpreted.
func FailClosed() Decision {
	return Decision{Done: true}
}
