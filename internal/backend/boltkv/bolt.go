// Package boltkv implements service.Storage on a bbolt file.
package boltkv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"tabnotes/internal/service"
)

const (
	// FileName is the database file created in the config directory.
	FileName = "tabnotes.db"

	// OpenTimeout bounds the wait for the file lock held by another process.
	OpenTimeout = 1 * time.Second

	bucketStorage = "storage"
)

// Bolt is a bbolt-backed key-value store.
type Bolt struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("storage is locked by another process: %s", path)
		}
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketStorage))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Get implements service.Storage.
func (b *Bolt) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketStorage)).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction.
			value, ok = string(v), true
		}
		return nil
	})
	return value, ok, err
}

// Put implements service.Storage.
func (b *Bolt) Put(ctx context.Context, entries ...service.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketStorage))
		for _, e := range entries {
			if err := bucket.Put([]byte(e.Key), []byte(e.Value)); err != nil {
				return fmt.Errorf("put %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

// Close implements service.Storage.
func (b *Bolt) Close() error {
	return b.db.Close()
}
