package sessionRepo

import (
	"context"
	"fmt"
	"time"

	"mediq/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionRepo implements SessionRepository on the
// conversation_sessions collection.
type MongoSessionRepo struct {
	coll *mongo.Collection
}

// NewMongoSessionRepo constructs a MongoSessionRepo on the given database handle.
func NewMongoSessionRepo(db *mongo.Database) *MongoSessionRepo {
	return &MongoSessionRepo{coll: db.Collection("conversation_sessions")}
}

// EnsureIndexes creates the session id and idle-scan indexes.
func (r *MongoSessionRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_session_id"),
		},
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "lastActiveAt", Value: 1}},
			Options: options.Index().SetName("state_last_active_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) Get(ctx context.Context, sessionID string) (*models.IntakeSession, error) {
	var s models.IntakeSession
	err := r.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching session %s: %w", sessionID, err)
	}
	return &s, nil
}

func (r *MongoSessionRepo) Put(ctx context.Context, s *models.IntakeSession) error {
	filter := bson.M{"sessionId": s.SessionID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, filter, s, opts); err != nil {
		return fmt.Errorf("error saving session %s: %w", s.SessionID, err)
	}
	return nil
}

func (r *MongoSessionRepo) ListIdle(ctx context.Context, cutoff time.Time) ([]models.IntakeSession, error) {
	filter := bson.M{
		"state":        bson.M{"$nin": bson.A{models.StateBooked, models.StateAbandoned}},
		"lastActiveAt": bson.M{"$lt": cutoff.UTC()},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing idle sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []models.IntakeSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("error decoding idle sessions: %w", err)
	}
	return sessions, nil
}
