package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	defaultDir      = ".feedlens"
	defaultBucket   = "feedlens"
	defaultFileName = "feedlens.db"
)

type database struct {
	db        *bolt.DB
	closeOnce sync.Once
}

var (
	mu       sync.Mutex
	instance *database
)

// Open initializes the database under dir, or under ~/.feedlens when dir is
// empty. Opening twice is a no-op.
func Open(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return nil
	}

	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, defaultDir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, defaultFileName)

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(defaultBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	instance = &database{
		db: db,
	}
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		return nil
	}

	var err error
	instance.closeOnce.Do(func() {
		if instance.db != nil {
			err = instance.db.Close()
		}
	})
	instance = nil
	return err
}

func current() (*database, error) {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return instance, nil
}

func Get(key []byte) ([]byte, error) {
	db, err := current()
	if err != nil {
		return nil, err
	}
	return db.get(key)
}

func Put(key, value []byte) error {
	db, err := current()
	if err != nil {
		return err
	}
	return db.put(key, value)
}

func Delete(key []byte) error {
	db, err := current()
	if err != nil {
		return err
	}
	return db.delete(key)
}

func List(prefix []byte) (map[string][]byte, error) {
	db, err := current()
	if err != nil {
		return nil, err
	}
	return db.list(prefix)
}

func (d *database) get(key []byte) ([]byte, error) {
	var value []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		v := bucket.Get(key)
		if v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	return value, err
}

func (d *database) put(key, value []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		return bucket.Put(key, value)
	})
}

func (d *database) delete(key []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		return bucket.Delete(key)
	})
}

func (d *database) list(prefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := d.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		cursor := bucket.Cursor()
		if len(prefix) == 0 {
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				key := make([]byte, len(k))
				value := make([]byte, len(v))
				copy(key, k)
				copy(value, v)
				result[string(key)] = value
			}
		} else {
			for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
				key := make([]byte, len(k))
				value := make([]byte, len(v))
				copy(key, k)
				copy(value, v)
				result[string(key)] = value
			}
		}
		return nil
	})
	return result, err
}
