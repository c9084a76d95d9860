package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink writes each stream's batches into a collection of the same name.
type MongoSink struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoSink connects to MongoDB and verifies the connection with a ping.
func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return &MongoSink{client: client, db: client.Database(database)}, nil
}

// Deliver inserts the batch unordered so a bad row does not abort the rest.
// Bulk write errors come back as row errors; anything else is a transport
// failure.
func (s *MongoSink) Deliver(ctx context.Context, stream string, records []interface{}) ([]RowError, error) {
	if s.db == nil {
		return nil, fmt.Errorf("mongo database is nil")
	}
	coll := s.db.Collection(stream)
	_, err := coll.InsertMany(ctx, records, options.InsertMany().SetOrdered(false))
	if err == nil {
		return nil, nil
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		rowErrs := make([]RowError, 0, len(bwe.WriteErrors))
		for _, we := range bwe.WriteErrors {
			rowErrs = append(rowErrs, RowError{Index: we.Index, Reason: we.Message})
		}
		return rowErrs, nil
	}
	return nil, err
}

// Close disconnects the underlying client.
func (s *MongoSink) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
