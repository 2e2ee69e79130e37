package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
)

const sessionsCollection = "sessions"

// MongoStore persists sessions in a MongoDB collection keyed by session_id.
// Append-and-fetch runs as a single findOneAndUpdate so history, counter and
// the recent slice stay consistent without a client-side transaction.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore wraps the sessions collection of the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(sessionsCollection)}
}

// EnsureIndexes creates the unique session_id index and the created_at index
// used for range queries. Safe to call on every startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, session interview.Session) error {
	if session.QAHistory == nil {
		session.QAHistory = []interview.QAPair{}
	}

	if _, err := s.col.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *MongoStore) AppendAndFetchRecent(ctx context.Context, sessionID string, qa interview.QAPair, limit int) ([]interview.QAPair, error) {
	if limit < 1 {
		limit = 1
	}

	update := bson.M{
		"$push": bson.M{"qa_history": qa},
		"$inc":  bson.M{"qa_count": 1},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"qa_history": bson.M{"$slice": -limit}})

	var doc interview.Session
	err := s.col.FindOneAndUpdate(ctx, bson.M{"session_id": sessionID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("append qa pair: %w", err)
	}

	return doc.QAHistory, nil
}

func (s *MongoStore) MarkDone(ctx context.Context, sessionID, classification string) error {
	set := bson.M{"status": interview.StatusDone}
	if classification != "" {
		set["classification"] = classification
	}

	// Filtering on the active status keeps the ACTIVE -> DONE transition
	// one-way even under concurrent callers.
	res, err := s.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "status": interview.StatusActive},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("mark session done: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Already done is a no-op; only an unknown id is an error.
	if _, err := s.Get(ctx, sessionID); err != nil {
		return err
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, sessionID string) (interview.Session, error) {
	var doc interview.Session
	err := s.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return interview.Session{}, ErrSessionNotFound
		}
		return interview.Session{}, fmt.Errorf("find session: %w", err)
	}
	return doc, nil
}
