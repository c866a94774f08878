package adapters

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/satriahrh/teletale/domain/entities"
	"github.com/satriahrh/teletale/domain/repositories"
)

// MemoryDocumentStore is an in-process DocumentStore with the filter, $set
// and upsert semantics of a MongoDB 5.0+ server: equality filters only, an
// empty $set is a no-op, and _id cannot be changed once stored.
// Suitable for local development and tests.
type MemoryDocumentStore struct {
	mu          sync.RWMutex
	collections map[string]*MemoryDocumentRepository
}

// NewMemoryDocumentStore creates an empty in-memory store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]*MemoryDocumentRepository),
	}
}

// Collection implements repositories.DocumentStore. Collections are created
// on first use, as in MongoDB.
func (s *MemoryDocumentStore) Collection(name string) repositories.DocumentRepository {
	s.mu.RLock()
	repo, exists := s.collections[name]
	s.mu.RUnlock()
	if exists {
		return repo
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if repo, exists = s.collections[name]; !exists {
		repo = &MemoryDocumentRepository{}
		s.collections[name] = repo
	}
	return repo
}

// Ping implements repositories.DocumentStore
func (s *MemoryDocumentStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// MemoryDocumentRepository holds one collection in insertion order
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs []entities.Document
}

// Find implements repositories.DocumentRepository
func (m *MemoryDocumentRepository) Find(ctx context.Context, filter entities.Filter) ([]entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.Document, 0)
	for _, doc := range m.docs {
		if matches(doc, filter) {
			result = append(result, copyDocument(doc))
		}
	}
	return result, nil
}

// FindOne implements repositories.DocumentRepository
func (m *MemoryDocumentRepository) FindOne(ctx context.Context, filter entities.Filter) (entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(filter); i >= 0 {
		return copyDocument(m.docs[i]), nil
	}
	return nil, nil
}

// InsertOne implements repositories.DocumentRepository
func (m *MemoryDocumentRepository) InsertOne(ctx context.Context, doc entities.Document) (*entities.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := copyDocument(doc)
	if stored == nil {
		stored = entities.Document{}
	}
	if _, exists := stored["_id"]; !exists {
		stored["_id"] = primitive.NewObjectID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(entities.Filter{"_id": stored["_id"]}) >= 0 {
		return nil, entities.ErrDuplicateKey
	}
	m.docs = append(m.docs, stored)

	return &entities.InsertResult{
		Acknowledged: true,
		InsertedID:   stored["_id"],
	}, nil
}

// UpdateOne implements repositories.DocumentRepository
func (m *MemoryDocumentRepository) UpdateOne(ctx context.Context, filter entities.Filter, set entities.Document, upsert bool) (*entities.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := &entities.UpdateResult{Acknowledged: true}

	if i := m.indexOf(filter); i >= 0 {
		if changesID(m.docs[i], set) {
			return nil, entities.ErrImmutableField
		}
		result.MatchedCount = 1
		if applySet(m.docs[i], set) {
			result.ModifiedCount = 1
		}
		return result, nil
	}

	if !upsert {
		return result, nil
	}

	// An upserted document is seeded from the equality conditions of the filter
	doc := entities.Document{}
	for key, value := range filter {
		doc[key] = value
	}
	if changesID(doc, set) {
		return nil, entities.ErrImmutableField
	}
	applySet(doc, set)
	if _, exists := doc["_id"]; !exists {
		doc["_id"] = primitive.NewObjectID()
	}
	m.docs = append(m.docs, doc)

	result.UpsertedCount = 1
	result.UpsertedID = doc["_id"]
	return result, nil
}

// DeleteOne implements repositories.DocumentRepository
func (m *MemoryDocumentRepository) DeleteOne(ctx context.Context, filter entities.Filter) (*entities.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := &entities.DeleteResult{Acknowledged: true}
	if i := m.indexOf(filter); i >= 0 {
		m.docs = append(m.docs[:i], m.docs[i+1:]...)
		result.DeletedCount = 1
	}
	return result, nil
}

// indexOf returns the position of the first match, or -1. Callers hold the lock.
func (m *MemoryDocumentRepository) indexOf(filter entities.Filter) int {
	for i, doc := range m.docs {
		if matches(doc, filter) {
			return i
		}
	}
	return -1
}

func matches(doc entities.Document, filter entities.Filter) bool {
	for key, want := range filter {
		got, exists := doc[key]
		if want == nil {
			if exists && got != nil {
				return false
			}
			continue
		}
		if !exists || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// changesID reports whether set assigns an _id different from the one doc has
func changesID(doc entities.Document, set entities.Document) bool {
	newID, setsID := set["_id"]
	if !setsID {
		return false
	}
	currentID, hasID := doc["_id"]
	return hasID && !reflect.DeepEqual(currentID, newID)
}

// applySet reports whether any field changed
func applySet(doc entities.Document, set entities.Document) bool {
	modified := false
	for key, value := range set {
		if current, exists := doc[key]; exists && reflect.DeepEqual(current, value) {
			continue
		}
		doc[key] = value
		modified = true
	}
	return modified
}

// copyDocument returns a shallow copy to prevent external modifications
func copyDocument(doc entities.Document) entities.Document {
	if doc == nil {
		return nil
	}
	c := make(entities.Document, len(doc))
	for key, value := range doc {
		c[key] = value
	}
	return c
}
