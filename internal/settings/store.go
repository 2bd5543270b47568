package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cankoe/filepulse/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

// ThresholdStore persists the threshold triple. Set writes all three values
// or none.
type ThresholdStore interface {
	Get(ctx context.Context) (models.Thresholds, error)
	Set(ctx context.Context, t models.Thresholds) error
}

// MemoryStore keeps thresholds in memory.
type MemoryStore struct {
	mu sync.Mutex
	t  models.Thresholds
}

func NewMemoryStore(initial models.Thresholds) *MemoryStore {
	return &MemoryStore{t: initial}
}

func (m *MemoryStore) Get(context.Context) (models.Thresholds, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t, nil
}

func (m *MemoryStore) Set(_ context.Context, t models.Thresholds) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = t
	return nil
}

// FileStore keeps thresholds in a YAML file. Writes go to a temporary file
// that is renamed over the target.
type FileStore struct {
	path     string
	defaults models.Thresholds
	mu       sync.Mutex
}

func NewFileStore(path string, defaults models.Thresholds) *FileStore {
	return &FileStore{path: path, defaults: defaults}
}

type thresholdsFile struct {
	Thresholds *models.Thresholds `yaml:"thresholds"`
}

func (f *FileStore) Get(context.Context) (models.Thresholds, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f.defaults, nil
	}
	if err != nil {
		return models.Thresholds{}, fmt.Errorf("read thresholds file: %w", err)
	}

	var doc thresholdsFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return models.Thresholds{}, fmt.Errorf("parse thresholds file %s: %w", f.path, err)
	}
	if doc.Thresholds == nil {
		return f.defaults, nil
	}
	return *doc.Thresholds, nil
}

func (f *FileStore) Set(_ context.Context, t models.Thresholds) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := yaml.Marshal(thresholdsFile{Thresholds: &t})
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create thresholds dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".thresholds-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp thresholds file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write thresholds: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close thresholds: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace thresholds file: %w", err)
	}
	return nil
}

const thresholdsDocID = "thresholds"

// MongoStore keeps thresholds as a single document in the settings collection.
type MongoStore struct {
	col      *mongo.Collection
	defaults models.Thresholds
}

func NewMongoStore(col *mongo.Collection, defaults models.Thresholds) *MongoStore {
	return &MongoStore{col: col, defaults: defaults}
}

func (m *MongoStore) Get(ctx context.Context) (models.Thresholds, error) {
	var doc struct {
		models.Thresholds `bson:",inline"`
	}
	err := m.col.FindOne(ctx, bson.M{"_id": thresholdsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.defaults, nil
	}
	if err != nil {
		return models.Thresholds{}, fmt.Errorf("find thresholds: %w", err)
	}
	return doc.Thresholds, nil
}

func (m *MongoStore) Set(ctx context.Context, t models.Thresholds) error {
	update := bson.M{"$set": bson.M{"green": t.Green, "amber": t.Amber, "red": t.Red}}
	_, err := m.col.UpdateOne(ctx, bson.M{"_id": thresholdsDocID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	return nil
}
