package store

import (
	"context"
	"errors"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
)

var (
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDuplicateSession indicates a create with an already used session id.
	ErrDuplicateSession = errors.New("session already exists")
)

// Store persists interview sessions. AppendAndFetchRecent must be atomic
// from the caller's perspective: the returned slice ends with the pair just
// appended, preceded by at most limit-1 earlier pairs, and qa_count is
// incremented together with the append.
type Store interface {
	Create(ctx context.Context, session interview.Session) error
	AppendAndFetchRecent(ctx context.Context, sessionID string, qa interview.QAPair, limit int) ([]interview.QAPair, error)
	MarkDone(ctx context.Context, sessionID, classification string) error
	Get(ctx context.Context, sessionID string) (interview.Session, error)
}

// semantic reports whether err is a contract error rather than an outage of
// the backing store.
func semantic(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrDuplicateSession)
}
