package mongo

import (
	"Vybe_AI/internal/models"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunStore defines the interface for agent run persistence.
type RunStore interface {
	Save(ctx context.Context, record *models.RunRecord) error
	GetByID(ctx context.Context, id string) (*models.RunRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*models.RunRecord, error)
}

// MongoRunStore is an implementation of RunStore using MongoDB.
type MongoRunStore struct {
	collection *mongo.Collection
}

// NewMongoRunStore creates a new MongoRunStore.
func NewMongoRunStore(db *mongo.Database, collectionName string) *MongoRunStore {
	return &MongoRunStore{
		collection: db.Collection(collectionName),
	}
}

// Save upserts a run record keyed by agent ID. Stop followed by restart of the
// process must not produce duplicate records for the same agent.
func (s *MongoRunStore) Save(ctx context.Context, record *models.RunRecord) error {
	filter := bson.M{"_id": record.ID}
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, filter, record, opts)
	return err
}

// GetByID retrieves a run record by agent ID.
func (s *MongoRunStore) GetByID(ctx context.Context, id string) (*models.RunRecord, error) {
	var record models.RunRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListRecent retrieves the most recently recorded runs.
func (s *MongoRunStore) ListRecent(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	var records []*models.RunRecord
	opts := options.Find()
	opts.SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	opts.SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
