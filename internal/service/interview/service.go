package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	interviewmodel "github.com/calebhsu/prescreen/backend/internal/model/interview"
	"github.com/calebhsu/prescreen/backend/internal/store"
)

var (
	// ErrSessionComplete rejects answers submitted after the interview
	// finished; silently accepting them would corrupt the completion
	// invariant.
	ErrSessionComplete = errors.New("session already complete")
	// ErrMissingAnswer rejects submissions with neither text nor a
	// transcribable recording.
	ErrMissingAnswer = errors.New("answer text is required")
	// ErrSessionNotFound mirrors the store sentinel for callers that only
	// import this package.
	ErrSessionNotFound = store.ErrSessionNotFound
)

// DefaultQuestions seed an interview when the caller supplies none.
var DefaultQuestions = []string{
	"What is the main reason for your visit today?",
	"How long have you had these symptoms?",
	"Are you currently taking any medications?",
	"Do you have any allergies to medication?",
}

const (
	defaultWindowSize = 8
	// fallbackCeiling bounds interviews that somehow have no seed
	// questions when the reasoning service is down.
	fallbackCeiling = 6
)

// Planner proposes the next interview action from the bounded context.
// Implementations may block on network calls; a returned error means the
// adaptive path is unavailable and deterministic seed cycling takes over.
type Planner interface {
	PlanNext(ctx context.Context, window interviewmodel.Window) (interviewmodel.Decision, error)
}

// StartResult is the outcome of opening a session.
type StartResult struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question"`
}

// TurnResult is the outcome of one submitted answer. The shape is identical
// whether the next question came from the reasoning service or from the
// fallback policy.
type TurnResult struct {
	NextQuestion   *string `json:"next_question"`
	Done           bool    `json:"done"`
	UserAnswer     string  `json:"user_answer"`
	Classification string  `json:"classification,omitempty"`
}

// Service is the per-session state machine driving the interview:
// ACTIVE --submit answer--> ACTIVE | DONE, with DONE terminal.
type Service struct {
	sessions   store.Store
	planner    Planner
	windowSize int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires the orchestrator to its session store and planner. A nil
// planner is allowed: every turn then runs the deterministic fallback.
func NewService(sessions store.Store, planner Planner, windowSize int) *Service {
	if windowSize < 1 {
		windowSize = defaultWindowSize
	}
	return &Service{
		sessions:   sessions,
		planner:    planner,
		windowSize: windowSize,
		locks:      make(map[string]*sync.Mutex),
	}
}

// CreateSession provisions a new interview and returns its opening question.
func (s *Service) CreateSession(ctx context.Context, patientName string, domainQuestions []string) (StartResult, error) {
	seeds := sanitizeQuestions(domainQuestions)
	if len(seeds) == 0 {
		seeds = append([]string(nil), DefaultQuestions...)
	}

	session := interviewmodel.Session{
		SessionID:       uuid.NewString(),
		PatientName:     strings.TrimSpace(patientName),
		DomainQuestions: seeds,
		QAHistory:       []interviewmodel.QAPair{},
		Status:          interviewmodel.StatusActive,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return StartResult{}, fmt.Errorf("create session: %w", err)
	}

	return StartResult{SessionID: session.SessionID, FirstQuestion: seeds[0]}, nil
}

// SubmitAnswer records one turn and decides what happens next. Submissions
// for the same session are serialized; the store and reasoning calls run
// holding only that session's lock.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, question, answerText string) (TurnResult, error) {
	if strings.TrimSpace(answerText) == "" {
		return TurnResult{}, ErrMissingAnswer
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if session.Status == interviewmodel.StatusDone {
		return TurnResult{}, ErrSessionComplete
	}

	qa := interviewmodel.QAPair{
		Question:  question,
		Answer:    answerText,
		Timestamp: time.Now().UTC(),
	}
	recent, err := s.sessions.AppendAndFetchRecent(ctx, sessionID, qa, s.windowSize)
	if err != nil {
		return TurnResult{}, fmt.Errorf("append answer: %w", err)
	}

	snapshot := session
	snapshot.QAHistory = recent
	window := BuildWindow(snapshot, s.windowSize)

	decision, source := s.decide(ctx, sessionID, window, session.DomainQuestions, session.QACount)

	if decision.Done {
		if err := s.sessions.MarkDone(ctx, sessionID, decision.Classification); err != nil {
			log.Printf("[interview] failed to persist completion session=%s: %v", sessionID, err)
		}
	}

	log.Printf("[interview] turn recorded session=%s turns=%d done=%t source=%s", sessionID, session.QACount+1, decision.Done, source)

	result := TurnResult{
		Done:           decision.Done,
		UserAnswer:     answerText,
		Classification: decision.Classification,
	}
	if !decision.Done {
		next := decision.NextQuestion
		result.NextQuestion = &next
	}
	return result, nil
}

// GetSession returns the full session snapshot.
func (s *Service) GetSession(ctx context.Context, sessionID string) (interviewmodel.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// decide runs the adaptive path and falls back to seed cycling when the
// planner is missing or unreachable. priorTurns is the history length
// before the current append.
func (s *Service) decide(ctx context.Context, sessionID string, window interviewmodel.Window, seeds []string, priorTurns int) (interviewmodel.Decision, string) {
	if s.planner != nil {
		decision, err := s.planner.PlanNext(ctx, window)
		if err == nil {
			return decision, "reasoning"
		}
		log.Printf("[interview] reasoning unavailable session=%s, using seed fallback: %v", sessionID, err)
	}
	return fallbackDecision(seeds, priorTurns), "fallback"
}

// fallbackDecision is the deterministic policy used when the reasoning
// service is down: walk the seed questions by turn index, then terminate.
// It guarantees the interview always makes progress and always ends.
func fallbackDecision(seeds []string, priorTurns int) interviewmodel.Decision {
	if len(seeds) == 0 {
		if priorTurns >= fallbackCeiling {
			return interviewmodel.Decision{Done: true}
		}
		seeds = DefaultQuestions
	}

	if priorTurns >= len(seeds) {
		return interviewmodel.Decision{Done: true}
	}
	return interviewmodel.Decision{NextQuestion: seeds[priorTurns%len(seeds)]}
}

// lockSession serializes submissions per session id without sharing one
// lock across unrelated sessions.
func (s *Service) lockSession(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func sanitizeQuestions(questions []string) []string {
	cleaned := make([]string, 0, len(questions))
	for _, q := range questions {
		if trimmed := strings.TrimSpace(q); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
