package store

import (
	"context"
	"sync"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
)

// MemoryStore keeps sessions in process memory. Each session has its own
// lock so activity on one session never serializes unrelated sessions; the
// outer lock only guards the map itself. Contents do not survive a restart
// and are not shared across instances.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu      sync.Mutex
	session interview.Session
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, session interview.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[session.SessionID]; ok {
		return ErrDuplicateSession
	}

	session.QAHistory = append([]interview.QAPair(nil), session.QAHistory...)
	s.entries[session.SessionID] = &memoryEntry{session: session}
	return nil
}

func (s *MemoryStore) AppendAndFetchRecent(_ context.Context, sessionID string, qa interview.QAPair, limit int) ([]interview.QAPair, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.session.QAHistory = append(entry.session.QAHistory, qa)
	entry.session.QACount = len(entry.session.QAHistory)

	return recentPairs(entry.session.QAHistory, limit), nil
}

func (s *MemoryStore) MarkDone(_ context.Context, sessionID, classification string) error {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.session.Status == interview.StatusDone {
		return nil
	}

	entry.session.Status = interview.StatusDone
	entry.session.Classification = classification
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (interview.Session, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return interview.Session{}, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	snapshot := entry.session
	snapshot.QAHistory = append([]interview.QAPair(nil), entry.session.QAHistory...)
	return snapshot, nil
}

func (s *MemoryStore) lookup(sessionID string) (*memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[sessionID]
	return entry, ok
}

func recentPairs(history []interview.QAPair, limit int) []interview.QAPair {
	start := 0
	if limit > 0 && len(history) > limit {
		start = len(history) - limit
	}
	return append([]interview.QAPair(nil), history[start:]...)
}
