package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
	"github.com/calebhsu/prescreen/backend/internal/store"
)

// downStore simulates an unreachable durable store.
type downStore struct {
	err error
}

func (d downStore) Create(context.Context, interview.Session) error { return d.err }

func (d downStore) AppendAndFetchRecent(context.Context, string, interview.QAPair, int) ([]interview.QAPair, error) {
	return nil, d.err
}

func (d downStore) MarkDone(context.Context, string, string) error { return d.err }

func (d downStore) Get(context.Context, string) (interview.Session, error) {
	return interview.Session{}, d.err
}

func TestResilientStoreDegradesToMemory(t *testing.T) {
	fallback := store.NewMemoryStore()
	s := store.NewResilientStore(downStore{err: errors.New("connection refused")}, fallback)
	ctx := context.Background()

	if err := s.Create(ctx, activeSession("a")); err != nil {
		t.Fatalf("Create should degrade to memory: %v", err)
	}

	recent, err := s.AppendAndFetchRecent(ctx, "a", interview.QAPair{Question: "q", Answer: "ans"}, 4)
	if err != nil {
		t.Fatalf("append should degrade to memory: %v", err)
	}
	if len(recent) != 1 || recent[0].Answer != "ans" {
		t.Fatalf("unexpected recent slice: %+v", recent)
	}

	if err := s.MarkDone(ctx, "a", "routine"); err != nil {
		t.Fatalf("MarkDone should degrade to memory: %v", err)
	}

	session, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get should degrade to memory: %v", err)
	}
	if session.Status != interview.StatusDone {
		t.Fatalf("expected done, got %s", session.Status)
	}
}

func TestResilientStoreSeedsShadowSession(t *testing.T) {
	// Session was created while the durable store was healthy; the
	// fallback has never seen it.
	s := store.NewResilientStore(downStore{err: errors.New("timeout")}, store.NewMemoryStore())

	recent, err := s.AppendAndFetchRecent(context.Background(), "created-elsewhere", interview.QAPair{Question: "q", Answer: "ans"}, 4)
	if err != nil {
		t.Fatalf("append should seed a shadow session: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected the appended pair, got %+v", recent)
	}
}

func TestResilientStorePassesSemanticErrorsThrough(t *testing.T) {
	s := store.NewResilientStore(downStore{err: store.ErrSessionNotFound}, store.NewMemoryStore())

	// A not-found answer from a healthy primary is a real contract error,
	// not an outage, and must not trigger the fallback path.
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := s.AppendAndFetchRecent(context.Background(), "nope", interview.QAPair{}, 1); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestResilientStoreUsesHealthyPrimary(t *testing.T) {
	primary := store.NewMemoryStore()
	fallback := store.NewMemoryStore()
	s := store.NewResilientStore(primary, fallback)
	ctx := context.Background()

	if err := s.Create(ctx, activeSession("a")); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	if _, err := primary.Get(ctx, "a"); err != nil {
		t.Fatalf("primary should hold the session: %v", err)
	}
	if _, err := fallback.Get(ctx, "a"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("fallback should stay empty while primary is healthy, got %v", err)
	}
}
