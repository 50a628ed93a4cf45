package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const matchBucket = "matches"

// BoltStore keeps matches in a single bbolt bucket, for single-node deployments.
type BoltStore struct {
	db *bolt.DB
}

var _ MatchStore = (*BoltStore)(nil)

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(matchBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("error close bolt db: %w", err)
	}
	return nil
}

func (s *BoltStore) Load(_ context.Context, id uuid.UUID) (*MatchRecord, error) {
	var rec MatchRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(matchBucket)).Get(id[:])
		if v == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) Save(_ context.Context, rec *MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(matchBucket)).Put(rec.ID[:], data)
	}); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}
	return nil
}

// Refresh bumps UpdatedAt on the stored record.
func (s *BoltStore) Refresh(_ context.Context, id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(matchBucket))
		v := b.Get(id[:])
		if v == nil {
			return ErrNotFound
		}
		var rec MatchRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}
		rec.UpdatedAt = time.Now()
		data, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		return b.Put(id[:], data)
	})
}

func (s *BoltStore) Delete(_ context.Context, id uuid.UUID) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(matchBucket)).Delete(id[:])
	}); err != nil {
		return fmt.Errorf("delete from bucket: %w", err)
	}
	return nil
}

func (s *BoltStore) List(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(matchBucket)).ForEach(func(k, _ []byte) error {
			id, err := uuid.FromBytes(k)
			if err != nil {
				return nil
			}
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bucket for each: %w", err)
	}
	return ids, nil
}

func (s *BoltStore) Ping(_ context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}
