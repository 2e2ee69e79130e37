package interview_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	interviewmodel "github.com/calebhsu/prescreen/backend/internal/model/interview"
	interview "github.com/calebhsu/prescreen/backend/internal/service/interview"
	"github.com/calebhsu/prescreen/backend/internal/store"
)

type stubPlanner struct {
	mu       sync.Mutex
	decision interviewmodel.Decision
	err      error
	calls    int
}

func (p *stubPlanner) PlanNext(_ context.Context, _ interviewmodel.Window) (interviewmodel.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.decision, p.err
}

func newTestService(planner interview.Planner) *interview.Service {
	return interview.NewService(store.NewMemoryStore(), planner, 8)
}

func TestCreateSessionDefaultsQuestions(t *testing.T) {
	svc := newTestService(nil)

	result, err := svc.CreateSession(context.Background(), "Ada", nil)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if result.FirstQuestion != interview.DefaultQuestions[0] {
		t.Fatalf("expected default first question, got %q", result.FirstQuestion)
	}
}

func TestSubmitAnswerMissingText(t *testing.T) {
	svc := newTestService(nil)
	result, _ := svc.CreateSession(context.Background(), "", nil)

	_, err := svc.SubmitAnswer(context.Background(), result.SessionID, "Q", "   ")
	if !errors.Is(err, interview.ErrMissingAnswer) {
		t.Fatalf("expected ErrMissingAnswer, got %v", err)
	}
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.SubmitAnswer(context.Background(), "missing", "Q", "A")
	if !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestFallbackCyclesSeedQuestionsThenFinishes(t *testing.T) {
	planner := &stubPlanner{err: errors.New("reasoning service down")}
	svc := newTestService(planner)

	seeds := []string{"Q1", "Q2", "Q3"}
	started, err := svc.CreateSession(context.Background(), "", seeds)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	for turn, want := range seeds {
		result, err := svc.SubmitAnswer(context.Background(), started.SessionID, "asked", fmt.Sprintf("answer-%d", turn))
		if err != nil {
			t.Fatalf("turn %d err: %v", turn+1, err)
		}
		if result.Done {
			t.Fatalf("turn %d finished early", turn+1)
		}
		if result.NextQuestion == nil || *result.NextQuestion != want {
			t.Fatalf("turn %d: expected %q, got %v", turn+1, want, result.NextQuestion)
		}
	}

	result, err := svc.SubmitAnswer(context.Background(), started.SessionID, "asked", "final answer")
	if err != nil {
		t.Fatalf("final turn err: %v", err)
	}
	if !result.Done {
		t.Fatal("expected interview to finish after seeds are exhausted")
	}
	if result.NextQuestion != nil {
		t.Fatalf("finished interview must not carry a next question: %v", *result.NextQuestion)
	}
}

func TestDoneSessionRejectsFurtherAnswers(t *testing.T) {
	planner := &stubPlanner{decision: interviewmodel.Decision{Done: true, Classification: "routine"}}
	svc := newTestService(planner)

	started, _ := svc.CreateSession(context.Background(), "", []string{"Q1"})

	result, err := svc.SubmitAnswer(context.Background(), started.SessionID, "Q1", "A1")
	if err != nil {
		t.Fatalf("SubmitAnswer err: %v", err)
	}
	if !result.Done || result.Classification != "routine" {
		t.Fatalf("unexpected result: %+v", result)
	}

	session, err := svc.GetSession(context.Background(), started.SessionID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if session.Status != interviewmodel.StatusDone {
		t.Fatalf("expected done status, got %s", session.Status)
	}
	if session.Classification != "routine" {
		t.Fatalf("classification not persisted: %q", session.Classification)
	}

	if _, err := svc.SubmitAnswer(context.Background(), started.SessionID, "Q2", "late answer"); !errors.Is(err, interview.ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete, got %v", err)
	}
}

func TestQACountMatchesHistory(t *testing.T) {
	planner := &stubPlanner{decision: interviewmodel.Decision{NextQuestion: "again"}}
	svc := newTestService(planner)

	started, _ := svc.CreateSession(context.Background(), "", []string{"Q1"})

	for i := 0; i < 5; i++ {
		if _, err := svc.SubmitAnswer(context.Background(), started.SessionID, "again", fmt.Sprintf("a-%d", i)); err != nil {
			t.Fatalf("turn %d err: %v", i+1, err)
		}

		session, err := svc.GetSession(context.Background(), started.SessionID)
		if err != nil {
			t.Fatalf("GetSession err: %v", err)
		}
		if session.QACount != len(session.QAHistory) {
			t.Fatalf("qa_count=%d but history len=%d", session.QACount, len(session.QAHistory))
		}
	}
}

func TestConcurrentSubmitsNeverTearHistory(t *testing.T) {
	planner := &stubPlanner{decision: interviewmodel.Decision{NextQuestion: "again"}}
	svc := newTestService(planner)

	started, _ := svc.CreateSession(context.Background(), "", []string{"Q1"})

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answer := fmt.Sprintf("worker-%d", i)
			if _, err := svc.SubmitAnswer(context.Background(), started.SessionID, answer, answer); err != nil {
				t.Errorf("worker %d err: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	session, err := svc.GetSession(context.Background(), started.SessionID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if len(session.QAHistory) != workers {
		t.Fatalf("expected %d pairs, got %d", workers, len(session.QAHistory))
	}
	if session.QACount != workers {
		t.Fatalf("expected qa_count=%d, got %d", workers, session.QACount)
	}
	for _, qa := range session.QAHistory {
		// Each worker wrote matching question/answer text; a mismatch
		// would mean two submissions interleaved mid-write.
		if qa.Question != qa.Answer {
			t.Fatalf("torn pair: %+v", qa)
		}
	}
}
