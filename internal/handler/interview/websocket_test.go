package interview

import (
	"testing"

	interviewmodel "github.com/calebhsu/prescreen/backend/internal/model/interview"
)

func TestNewConnectionStateSeedsFirstQuestion(t *testing.T) {
	state := newConnectionState(interviewmodel.Session{
		SessionID:       "s-1",
		DomainQuestions: []string{"Q1", "Q2"},
	})

	if state.pendingQuestion != "Q1" {
		t.Fatalf("fresh session should start at the first seed, got %q", state.pendingQuestion)
	}
	if !state.ttsEnabled || state.language != "en-US" {
		t.Fatalf("unexpected defaults: tts=%v language=%q", state.ttsEnabled, state.language)
	}
}

func TestNewConnectionStateSkipsSeedMidInterview(t *testing.T) {
	state := newConnectionState(interviewmodel.Session{
		SessionID:       "s-1",
		DomainQuestions: []string{"Q1", "Q2"},
		QACount:         3,
	})

	// A reconnecting client supplies the question with its next answer; the
	// stale first seed must not be replayed.
	if state.pendingQuestion != "" {
		t.Fatalf("mid-interview connection must not replay the first seed, got %q", state.pendingQuestion)
	}
}
