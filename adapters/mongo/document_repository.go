package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/satriahrh/teletale/domain/entities"
	"github.com/satriahrh/teletale/domain/repositories"
)

// DocumentStore implements repositories.DocumentStore on a MongoDB database
type DocumentStore struct {
	db *mongo.Database
}

// NewDocumentStore creates a store over the client's database
func NewDocumentStore(client *Client) *DocumentStore {
	return &DocumentStore{db: client.Database}
}

// Collection implements repositories.DocumentStore
func (s *DocumentStore) Collection(name string) repositories.DocumentRepository {
	return &DocumentRepository{collection: s.db.Collection(name)}
}

// Ping implements repositories.DocumentStore
func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return classify(fmt.Errorf("failed to ping MongoDB: %w", err))
	}
	return nil
}

// DocumentRepository passes operations straight through to one collection
type DocumentRepository struct {
	collection *mongo.Collection
}

// Find implements repositories.DocumentRepository
func (r *DocumentRepository) Find(ctx context.Context, filter entities.Filter) ([]entities.Document, error) {
	cursor, err := r.collection.Find(ctx, toBSON(filter))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to find in %s: %w", r.collection.Name(), err))
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, classify(fmt.Errorf("failed to read cursor of %s: %w", r.collection.Name(), err))
	}

	docs := make([]entities.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, entities.Document(m))
	}
	return docs, nil
}

// FindOne implements repositories.DocumentRepository
func (r *DocumentRepository) FindOne(ctx context.Context, filter entities.Filter) (entities.Document, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, toBSON(filter)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("failed to find one in %s: %w", r.collection.Name(), err))
	}
	return entities.Document(doc), nil
}

// InsertOne implements repositories.DocumentRepository
func (r *DocumentRepository) InsertOne(ctx context.Context, doc entities.Document) (*entities.InsertResult, error) {
	result, err := r.collection.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to insert into %s: %w", r.collection.Name(), err))
	}
	return &entities.InsertResult{
		Acknowledged: true,
		InsertedID:   result.InsertedID,
	}, nil
}

// UpdateOne implements repositories.DocumentRepository
func (r *DocumentRepository) UpdateOne(ctx context.Context, filter entities.Filter, set entities.Document, upsert bool) (*entities.UpdateResult, error) {
	update := bson.M{"$set": bson.M(set)}
	opts := options.Update().SetUpsert(upsert)

	result, err := r.collection.UpdateOne(ctx, toBSON(filter), update, opts)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to update %s: %w", r.collection.Name(), err))
	}
	return &entities.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
		UpsertedCount: result.UpsertedCount,
		UpsertedID:    result.UpsertedID,
	}, nil
}

// DeleteOne implements repositories.DocumentRepository
func (r *DocumentRepository) DeleteOne(ctx context.Context, filter entities.Filter) (*entities.DeleteResult, error) {
	result, err := r.collection.DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to delete from %s: %w", r.collection.Name(), err))
	}
	return &entities.DeleteResult{
		Acknowledged: true,
		DeletedCount: result.DeletedCount,
	}, nil
}

func toBSON(filter entities.Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}

// immutableFieldCode is the server error code for an update touching _id
const immutableFieldCode = 66

// classify tags driver errors with the domain sentinel the API maps to a status
func classify(err error) error {
	var serverErr mongo.ServerError
	switch {
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", entities.ErrDuplicateKey, err)
	case errors.As(err, &serverErr) && serverErr.HasErrorCode(immutableFieldCode):
		return fmt.Errorf("%w: %w", entities.ErrImmutableField, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, err)
	}
	return err
}
