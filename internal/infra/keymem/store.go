package keymem

import (
	"context"
	"sync"

	"schnorrd/pkg/schnorr"

	"github.com/google/uuid"
)

// Store keeps encoded key records in process memory.
type Store struct {
	mu      sync.RWMutex
	records map[string][]string
	newID   func() string
}

func New() *Store {
	return &Store{
		records: make(map[string][]string),
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Store) Save(ctx context.Context, rec schnorr.KeyRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rec.ID = s.newID()
	values := schnorr.EncodeKeyRecord(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = values
	return rec.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (schnorr.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return schnorr.KeyRecord{}, err
	}
	s.mu.RLock()
	values, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return schnorr.KeyRecord{}, schnorr.ErrRecordNotFound
	}
	return schnorr.DecodeKeyRecord(values)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

var _ schnorr.KeyStore = (*Store)(nil)
