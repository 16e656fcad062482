// Package redis provides a Redis-backed contract store.
//
// Each record is one hash whose field names are the logical record fields.
// Timestamps are RFC 3339 strings in UTC. Clearing a slot deletes its two
// hash fields; the acceptance fields are never deleted.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// DefaultPrefix namespaces contract hashes.
const DefaultPrefix = "lovecontract:contract:"

const (
	fieldID         = "id"
	fieldAccepted   = "accepted"
	fieldAcceptedAt = "accepted_at"
)

// Store is a Redis hash per contract key.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Open parses a redis:// URL, connects and pings the server.
func Open(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, ""), nil
}

// Client returns the underlying client.
func (s *Store) Client() *redis.Client { return s.client }

func (s *Store) hashKey(key string) string { return s.prefix + key }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(fields map[string]string, name string) (*time.Time, error) {
	v, ok := fields[name]
	if !ok || v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	t = t.UTC()
	return &t, nil
}

func (s *Store) Read(ctx context.Context, key string) (contract.Document, error) {
	if err := store.CheckKey(key); err != nil {
		return contract.Document{}, err
	}
	fields, err := s.client.HGetAll(ctx, s.hashKey(key)).Result()
	if err != nil {
		return contract.Document{}, store.Fail(err, "read %s", key)
	}
	if len(fields) == 0 {
		return contract.Document{}, store.ErrNotFound
	}

	rec := contract.Record{ID: key}
	for _, slot := range contract.Slots {
		names := slot.Fields()
		img, ok := fields[names.Image]
		if !ok {
			continue
		}
		at, err := parseTime(fields, names.SignedAt)
		if err != nil {
			return contract.Document{}, store.Fail(err, "read %s", key)
		}
		rec.SetSignature(slot, contract.Signature{Image: contract.Blob(img), SignedAt: at})
	}
	if v, ok := fields[fieldAccepted]; ok {
		rec.Accepted, err = strconv.ParseBool(v)
		if err != nil {
			return contract.Document{}, store.Fail(err, "read %s: field %s", key, fieldAccepted)
		}
	}
	if rec.AcceptedAt, err = parseTime(fields, fieldAcceptedAt); err != nil {
		return contract.Document{}, store.Fail(err, "read %s", key)
	}
	return rec.Document(), nil
}

func (s *Store) UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error {
	if err := store.CheckSignature(key, slot, image); err != nil {
		return err
	}
	names := slot.Fields()
	err := s.client.HSet(ctx, s.hashKey(key),
		fieldID, key,
		names.Image, string(image),
		names.SignedAt, formatTime(at),
	).Err()
	return store.Fail(err, "upsert signature %s", slot)
}

func (s *Store) ClearSignature(ctx context.Context, key string, slot contract.Slot) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	names, err := store.Fields(slot)
	if err != nil {
		return err
	}
	err = s.client.HDel(ctx, s.hashKey(key), names.Image, names.SignedAt).Err()
	return store.Fail(err, "clear signature %s", slot)
}

func (s *Store) SetAccepted(ctx context.Context, key string, at time.Time) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	err := s.client.HSet(ctx, s.hashKey(key),
		fieldID, key,
		fieldAccepted, "true",
		fieldAcceptedAt, formatTime(at),
	).Err()
	return store.Fail(err, "set accepted")
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)
