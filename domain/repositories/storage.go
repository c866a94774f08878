package repositories

import (
	"context"

	"github.com/satriahrh/teletale/domain/entities"
)

// DocumentStore is the handle to the document database shared by all routes
type DocumentStore interface {
	Collection(name string) DocumentRepository
	Ping(ctx context.Context) error
}

// DocumentRepository defines data access methods for one collection.
// FindOne returns a nil document without error when nothing matches.
type DocumentRepository interface {
	Find(ctx context.Context, filter entities.Filter) ([]entities.Document, error)
	FindOne(ctx context.Context, filter entities.Filter) (entities.Document, error)
	InsertOne(ctx context.Context, doc entities.Document) (*entities.InsertResult, error)
	// UpdateOne applies set as a $set to the first match, inserting when
	// upsert is true and nothing matches
	UpdateOne(ctx context.Context, filter entities.Filter, set entities.Document, upsert bool) (*entities.UpdateResult, error)
	DeleteOne(ctx context.Context, filter entities.Filter) (*entities.DeleteResult, error)
}
