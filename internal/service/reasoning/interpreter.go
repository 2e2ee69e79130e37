package reasoning

import (
	"encoding/json"
	"strings"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
)

// ParseOutcome tags how a raw reasoning response was turned into a Decision.
type ParseOutcome string

const (
	// OutcomeStrict means the full response body parsed as a JSON object.
	OutcomeStrict ParseOutcome = "strict"
	// OutcomeSalvaged means a JSON object was recovered from inside
	// surrounding prose.
	OutcomeSalvaged ParseOutcome = "salvaged"
	// OutcomeUnparseable means no usable object was found and the safe
	// terminal default was returned instead.
	OutcomeUnparseable ParseOutcome = "unparseable"
)

// decisionPayload uses pointers so absent fields can be told apart from
// zero values; each absent field takes the conservative stop default.
type decisionPayload struct {
	NextQuestion   *string `json:"next_question"`
	Done           *bool   `json:"done"`
	Classification *string `json:"classification"`
}

// Interpret normalizes the reasoning service's raw text into a Decision.
// The upstream contract says the text should be a JSON object, but the
// service cannot be forced to comply, so parsing runs in two tiers: the
// whole body first, then the outermost {...} span. When both fail the
// interview fails closed rather than asking a garbled question.
func Interpret(raw string) (interview.Decision, ParseOutcome) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "{") {
		if decision, ok := decodeDecision(trimmed); ok {
			return decision, OutcomeStrict
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		if decision, ok := decodeDecision(trimmed[start : end+1]); ok {
			return decision, OutcomeSalvaged
		}
	}

	return interview.FailClosed(), OutcomeUnparseable
}

func decodeDecision(text string) (interview.Decision, bool) {
	var payload decisionPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return interview.Decision{}, false
	}

	decision := interview.Decision{Done: true}
	if payload.Done != nil {
		decision.Done = *payload.Done
	}
	if payload.NextQuestion != nil {
		decision.NextQuestion = strings.TrimSpace(*payload.NextQuestion)
	}
	if payload.Classification != nil {
		decision.Classification = strings.TrimSpace(*payload.Classification)
	}

	// A continue signal without a question is not actionable.
	if !decision.Done && decision.NextQuestion == "" {
		return interview.FailClosed(), true
	}
	if decision.Done {
		decision.NextQuestion = ""
	}

	return decision, true
}
