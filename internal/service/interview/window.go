package interview

import (
	interviewmodel "github.com/calebhsu/prescreen/backend/internal/model/interview"
)

// BuildWindow derives the bounded context handed to the reasoning step: the
// last size QA pairs in turn order, reduced to their text, plus the seed
// questions. Pure function; the same session snapshot always yields the
// same window.
func BuildWindow(session interviewmodel.Session, size int) interviewmodel.Window {
	history := session.QAHistory
	if size < 1 {
		size = 1
	}
	if len(history) > size {
		history = history[len(history)-size:]
	}

	pairs := make([]interviewmodel.WindowPair, 0, len(history))
	for _, qa := range history {
		pairs = append(pairs, interviewmodel.WindowPair{
			Question: qa.Question,
			Answer:   qa.Answer,
		})
	}

	return interviewmodel.Window{
		DomainQuestions: append([]string(nil), session.DomainQuestions...),
		PreviousPairs:   pairs,
	}
}
