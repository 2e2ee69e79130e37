package reasoning

import "strings"

// Strategy supplies the prompt policy for the reasoning step. The engine
// only consumes Decisions, so the elicitation style stays pluggable.
type Strategy interface {
	Name() string
	SystemPrompt() string
}

// StrategyByName resolves a configured strategy name, defaulting to gradual
// elicitation for unknown or empty values.
func StrategyByName(name string) Strategy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "triage":
		return triageStrategy{}
	default:
		return gradualStrategy{}
	}
}

// gradualStrategy collects information question by question until the
// pre-screening picture is complete.
type gradualStrategy struct{}

func (gradualStrategy) Name() string { return "gradual" }

func (gradualStrategy) SystemPrompt() string {
	return "You are a medical pre-screening assistant whose job is to ask short relevant follow-up questions " +
		"to collect useful information for a GP or specialist. You should:\n" +
		"1. Use the provided domain_questions as a guide or reference\n" +
		"2. Ask the most relevant next question based on the patient's responses (either from domain_questions or a relevant follow-up)\n" +
		"3. Generate contextually appropriate follow-up questions that clarify or expand on their answers\n" +
		"4. Stop when you have sufficient medical information for a pre-screening\n\n" +
		"Return ONLY a JSON object with keys: \"next_question\" (string or null), \"done\" (boolean) and " +
		"\"classification\" (string or null). If you determine you have enough information, respond with " +
		"\"next_question\": null and \"done\": true, and set \"classification\" to a short visit category if one is clear."
}

// triageStrategy aims for a fast routing classification with as few turns
// as possible.
type triageStrategy struct{}

func (triageStrategy) Name() string { return "triage" }

func (triageStrategy) SystemPrompt() string {
	return "You are a medical triage assistant. Decide as quickly as possible whether the patient's visit is " +
		"\"urgent\" or \"routine\". Ask a clarifying question only when the current answers cannot support a " +
		"confident classification; prefer questions from domain_questions when they apply.\n\n" +
		"Return ONLY a JSON object with keys: \"next_question\" (string or null), \"done\" (boolean) and " +
		"\"classification\" (string or null). As soon as you can classify, respond with \"done\": true, " +
		"\"next_question\": null and the classification."
}

const userPromptTemplate = "Given the context JSON below, generate or select the best next question to ask the patient. " +
	"You can choose from the domain_questions list OR generate a new relevant follow-up question based on their answers. " +
	"Prioritize questions that will be most useful for pre-screening assessment. " +
	"Questions should be short and natural. " +
	"If you have gathered enough information, set done=true and next_question=null.\n\n" +
	"Context: {context}\n\n" +
	"Answer in JSON only."
