package store

import (
	"context"
	"log"
	"time"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
)

// ResilientStore serves from a durable primary and degrades to an in-memory
// fallback when the primary is unreachable. The decision is made per call:
// a session is never pinned to the fallback, so writes may intermix durable
// and memory paths while availability flaps. That inconsistency is accepted
// (availability over durability) and every degraded write is logged.
type ResilientStore struct {
	primary  Store
	fallback *MemoryStore
}

// NewResilientStore wraps primary with an in-memory fallback.
func NewResilientStore(primary Store, fallback *MemoryStore) *ResilientStore {
	return &ResilientStore{primary: primary, fallback: fallback}
}

func (s *ResilientStore) Create(ctx context.Context, session interview.Session) error {
	err := s.primary.Create(ctx, session)
	if err == nil || semantic(err) {
		return err
	}

	log.Printf("[store] durable create failed for session=%s, serving from memory: %v", session.SessionID, err)
	return s.fallback.Create(ctx, session)
}

func (s *ResilientStore) AppendAndFetchRecent(ctx context.Context, sessionID string, qa interview.QAPair, limit int) ([]interview.QAPair, error) {
	recent, err := s.primary.AppendAndFetchRecent(ctx, sessionID, qa, limit)
	if err == nil || semantic(err) {
		return recent, err
	}

	log.Printf("[store] durable append failed for session=%s, serving from memory: %v", sessionID, err)
	s.ensureShadow(ctx, sessionID)
	return s.fallback.AppendAndFetchRecent(ctx, sessionID, qa, limit)
}

func (s *ResilientStore) MarkDone(ctx context.Context, sessionID, classification string) error {
	err := s.primary.MarkDone(ctx, sessionID, classification)
	if err == nil || semantic(err) {
		return err
	}

	log.Printf("[store] durable status update failed for session=%s, serving from memory: %v", sessionID, err)
	s.ensureShadow(ctx, sessionID)
	return s.fallback.MarkDone(ctx, sessionID, classification)
}

func (s *ResilientStore) Get(ctx context.Context, sessionID string) (interview.Session, error) {
	session, err := s.primary.Get(ctx, sessionID)
	if err == nil || semantic(err) {
		return session, err
	}

	log.Printf("[store] durable read failed for session=%s, serving from memory: %v", sessionID, err)
	return s.fallback.Get(ctx, sessionID)
}

// ensureShadow makes sure the fallback has an entry for a session that was
// created on the durable path before the outage. The shadow starts active
// with empty history; partial progress is acceptable here.
func (s *ResilientStore) ensureShadow(ctx context.Context, sessionID string) {
	if _, err := s.fallback.Get(ctx, sessionID); err == nil {
		return
	}

	shadow := interview.Session{
		SessionID: sessionID,
		Status:    interview.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.fallback.Create(ctx, shadow); err != nil && err != ErrDuplicateSession {
		log.Printf("[store] failed to seed fallback session=%s: %v", sessionID, err)
	}
}
