package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/cankoe/filepulse/internal/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Recorder stores the outcome of send attempts.
type Recorder interface {
	Record(ctx context.Context, d models.Delivery) error
}

// Nop discards every delivery. It is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, models.Delivery) error { return nil }

// Log is the MongoDB-backed delivery log.
type Log struct {
	col *mongo.Collection
}

func NewLog(col *mongo.Collection) *Log {
	return &Log{col: col}
}

// EnsureIndexes creates the indexes used for listing.
func (l *Log) EnsureIndexes(ctx context.Context) error {
	if _, err := l.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "attempted_at", Value: -1}}},
		{Keys: bson.D{{Key: "batch_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create indexes on deliveries: %w", err)
	}
	log.Info().Msg("Delivery indexes ensured successfully")
	return nil
}

func (l *Log) Record(ctx context.Context, d models.Delivery) error {
	if d.AttemptedAt.IsZero() {
		d.AttemptedAt = time.Now().UTC()
	}
	if _, err := l.col.InsertOne(ctx, d); err != nil {
		log.Error().Err(err).Str("batch_id", d.BatchID).Str("recipient", d.Recipient).Msg("Failed to record delivery")
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// Filter narrows a listing; zero values match everything.
type Filter struct {
	Kind    models.DeliveryKind
	Status  models.DeliveryStatus
	BatchID string
}

// List returns one page of deliveries, most recent first. page starts at 1.
func (l *Log) List(ctx context.Context, f Filter, page, limit int) ([]models.Delivery, error) {
	query := bson.M{}
	if f.Kind != "" {
		query["kind"] = f.Kind
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.BatchID != "" {
		query["batch_id"] = f.BatchID
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "attempted_at", Value: -1}})

	cursor, err := l.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID              primitive.ObjectID `bson:"_id"`
		models.Delivery `bson:",inline"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode deliveries: %w", err)
	}

	out := make([]models.Delivery, 0, len(docs))
	for _, d := range docs {
		item := d.Delivery
		item.ID = d.ID.Hex()
		out = append(out, item)
	}
	return out, nil
}

// DeleteAll clears the log and returns how many entries were removed.
func (l *Log) DeleteAll(ctx context.Context) (int64, error) {
	res, err := l.col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete deliveries: %w", err)
	}
	log.Info().Int64("deleted", res.DeletedCount).Msg("Delivery log cleared")
	return res.DeletedCount, nil
}
