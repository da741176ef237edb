package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var kvBucket = []byte("kv")

// BoltKV implements KV on a single bbolt bucket.
type BoltKV struct {
	db *bolt.DB
}

// NewBoltKV opens (or creates) a bbolt database at path.
func NewBoltKV(path string) (*BoltKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltKV{db: db}, nil
}

// Load returns the value stored under key.
func (b *BoltKV) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return nil
		}
		// Values are only valid for the life of the transaction.
		if v := bucket.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("load key %q: %w", key, err)
	}
	return out, out != nil, nil
}

// Save stores value under key.
func (b *BoltKV) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(kvBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("save key %q: %w", key, err)
	}
	return nil
}

// Close closes the database file.
func (b *BoltKV) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close bolt database: %w", err)
	}
	return nil
}

var _ KV = (*BoltKV)(nil)
