// Package store is the on-disk read-through cache for fetched entities:
// a BoltDB file with one bucket per entity kind plus a bucket for synced
// list snapshots, values JSON-encoded.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

// Bucket names, one per entity kind. Detail records are keyed by
// upper-cased entity id; list snapshots live in ListBucket keyed by
// "<kind>/<domain>".
const (
	TacticBucket     = "tactics"
	TechniqueBucket  = "techniques"
	MitigationBucket = "mitigations"
	GroupBucket      = "groups"
	SoftwareBucket   = "software"
	DataSourceBucket = "datasources"
	ListBucket       = "lists"
)

// Buckets lists every bucket the store creates.
var Buckets = []string{
	TacticBucket,
	TechniqueBucket,
	MitigationBucket,
	GroupBucket,
	SoftwareBucket,
	DataSourceBucket,
	ListBucket,
}

// ErrNotFound reports a cache miss.
var ErrNotFound = errors.New("store: key not found")

// Store wraps the Bolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the store at path and ensures every
// bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: opening %q: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range Buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("store: creating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put JSON-encodes v under key in the named bucket.
func (s *Store) Put(bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshaling %s/%s: %w", bucket, key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("store: bucket %s not found", bucket)
		}
		return b.Put([]byte(key), data)
	})
}

// Get decodes the value under key in the named bucket into out. A miss is
// ErrNotFound.
func (s *Store) Get(bucket, key string, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("store: bucket %s not found", bucket)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return json.Unmarshal(data, out)
	})
}

// Each calls fn with every key/value pair of the named bucket, in key
// order. Returning an error from fn stops the walk.
func (s *Store) Each(bucket string, fn func(key string, value []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("store: bucket %s not found", bucket)
		}
		cursor := b.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if err := fn(string(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}
