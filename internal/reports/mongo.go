package reports

import (
	"context"
	"fmt"

	"github.com/cankoe/filepulse/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore reads the report index written by the report generator.
type MongoStore struct {
	col   *mongo.Collection
	limit int64
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col, limit: 50}
}

// EnsureIndexes creates the index backing newest-first listing.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "generated_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on reports.generated_at: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "generated_at", Value: -1}}).
		SetLimit(s.limit)

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cursor.Close(ctx)

	var list []models.Report
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return list, nil
}
