package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
	"github.com/calebhsu/prescreen/backend/internal/store"
)

// TestMongoStoreRoundTrip runs against a real MongoDB instance and is
// skipped unless MONGO_TEST_URI is set.
func TestMongoStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(fmt.Sprintf("prescreener_test_%d", time.Now().UnixNano()))
	defer db.Drop(ctx)

	s := store.NewMongoStore(db)
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	session := activeSession("mongo-a")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, session); !errors.Is(err, store.ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}

	for i := 0; i < 4; i++ {
		recent, err := s.AppendAndFetchRecent(ctx, "mongo-a", interview.QAPair{
			Question:  fmt.Sprintf("q-%d", i),
			Answer:    fmt.Sprintf("a-%d", i),
			Timestamp: time.Now().UTC(),
		}, 2)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if recent[len(recent)-1].Question != fmt.Sprintf("q-%d", i) {
			t.Fatalf("append %d: recent slice must end with the new pair", i)
		}
		if len(recent) > 2 {
			t.Fatalf("append %d: recent slice exceeds limit: %d", i, len(recent))
		}
	}

	loaded, err := s.Get(ctx, "mongo-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.QACount != 4 || len(loaded.QAHistory) != 4 {
		t.Fatalf("count/history mismatch: count=%d len=%d", loaded.QACount, len(loaded.QAHistory))
	}

	if err := s.MarkDone(ctx, "mongo-a", "routine"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := s.MarkDone(ctx, "mongo-a", "changed"); err != nil {
		t.Fatalf("repeat MarkDone: %v", err)
	}

	loaded, err = s.Get(ctx, "mongo-a")
	if err != nil {
		t.Fatalf("Get after done: %v", err)
	}
	if loaded.Status != interview.StatusDone || loaded.Classification != "routine" {
		t.Fatalf("unexpected final state: %+v", loaded)
	}
}
