package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	preferencesBucket = []byte("preferences")
	snapshotBucket    = []byte("snapshot")

	themeKey    = []byte("theme_mode")
	postsKey    = []byte("posts")
	errNoBucket = errors.New("bucket missing")
)

// ErrNoSnapshot is returned when no collection has been cached yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{preferencesBucket, snapshotBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadTheme returns the persisted theme value, or "" when none was saved.
func (s *Store) LoadTheme() (string, error) {
	var mode string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(preferencesBucket)
		if b == nil {
			return errNoBucket
		}
		mode = string(b.Get(themeKey))
		return nil
	})
	return mode, err
}

func (s *Store) SaveTheme(mode string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(preferencesBucket)
		if b == nil {
			return errNoBucket
		}
		return b.Put(themeKey, []byte(mode))
	})
}

func (s *Store) SaveSnapshot(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		if b == nil {
			return errNoBucket
		}
		return b.Put(postsKey, data)
	})
}

func (s *Store) LoadSnapshot() (*Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		if b == nil {
			return errNoBucket
		}
		data := b.Get(postsKey)
		if data == nil {
			return ErrNoSnapshot
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) ClearSnapshot() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		if b == nil {
			return errNoBucket
		}
		return b.Delete(postsKey)
	})
}
