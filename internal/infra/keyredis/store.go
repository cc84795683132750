package keyredis

import (
	"context"
	"errors"
	"fmt"

	"schnorrd/pkg/schnorr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "schnorr:key:"

// Store keeps each key record in a hash whose fields follow schnorr.KeyRecordFields.
type Store struct {
	client *redis.Client
	prefix string
	newID  func() string
}

func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, newID: uuid.NewString}
}

func NewFromAddr(addr, password string, db int, prefix string) (*Store, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return New(client, prefix), nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) Save(ctx context.Context, rec schnorr.KeyRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	values := schnorr.EncodeKeyRecord(rec)
	pairs := make([]any, 0, 2*len(values))
	for i, f := range schnorr.KeyRecordFields {
		pairs = append(pairs, f.Name, values[i])
	}
	if err := s.client.HSet(ctx, s.key(rec.ID), pairs...).Err(); err != nil {
		return "", fmt.Errorf("redis hset: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (schnorr.KeyRecord, error) {
	raw, err := s.client.HMGet(ctx, s.key(id), schnorr.KeyRecordColumns()...).Result()
	if err != nil {
		return schnorr.KeyRecord{}, fmt.Errorf("redis hmget: %w", err)
	}
	values, found, err := hashValues(raw)
	if err != nil {
		return schnorr.KeyRecord{}, err
	}
	if !found {
		return schnorr.KeyRecord{}, schnorr.ErrRecordNotFound
	}
	return schnorr.DecodeKeyRecord(values)
}

// hashValues converts an HMGET reply. found is false when no field exists at all.
func hashValues(raw []any) ([]string, bool, error) {
	values := make([]string, len(raw))
	found := false
	for i, v := range raw {
		switch tv := v.(type) {
		case nil:
		case string:
			values[i] = tv
			found = true
		default:
			return nil, false, fmt.Errorf("%w: unexpected redis value %T", schnorr.ErrInvalidRecord, v)
		}
	}
	return values, found, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

var _ schnorr.KeyStore = (*Store)(nil)
