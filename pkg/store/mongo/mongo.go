// Package mongo provides a MongoDB-backed contract store.
//
// Each record is one document keyed by _id with the logical field names.
// MongoDB stores timestamps with millisecond precision.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// Default database and collection names.
const (
	DefaultDatabase   = "lovecontract"
	DefaultCollection = "signatures"
)

// Store keeps one contract document per key.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New wraps a connected client.
func New(client *mongo.Client, database, collection string) *Store {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, coll: client.Database(database).Collection(collection)}
}

// Open connects to uri and pings the primary.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client, database, ""), nil
}

func fail(err error, format string, args ...any) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		err = store.Retryable(err)
	}
	return store.Fail(err, format, args...)
}

func (s *Store) Read(ctx context.Context, key string) (contract.Document, error) {
	if err := store.CheckKey(key); err != nil {
		return contract.Document{}, err
	}
	var rec contract.Record
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return contract.Document{}, store.ErrNotFound
	}
	if err != nil {
		return contract.Document{}, fail(err, "read %s", key)
	}
	return rec.Document(), nil
}

func (s *Store) UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error {
	if err := store.CheckSignature(key, slot, image); err != nil {
		return err
	}
	names := slot.Fields()
	update := bson.M{"$set": bson.M{
		names.Image:    string(image),
		names.SignedAt: at.UTC(),
	}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fail(err, "upsert signature %s", slot)
	}
	return nil
}

func (s *Store) ClearSignature(ctx context.Context, key string, slot contract.Slot) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	names, err := store.Fields(slot)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		names.Image:    nil,
		names.SignedAt: nil,
	}}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update); err != nil {
		return fail(err, "clear signature %s", slot)
	}
	return nil
}

func (s *Store) SetAccepted(ctx context.Context, key string, at time.Time) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"accepted":    true,
		"accepted_at": at.UTC(),
	}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fail(err, "set accepted")
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
