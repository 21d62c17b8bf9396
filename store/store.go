// Package store persists timers, time entries, tasks and idle events in a
// BoltDB file
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/workstate/internal/apperr"
)

const (
	timerBucket   = "timers"
	entryBucket   = "entries"
	taskBucket    = "tasks"
	projectBucket = "projects"
	idleBucket    = "idle"
	metaBucket    = "meta"
)

var buckets = []string{
	timerBucket,
	entryBucket,
	taskBucket,
	projectBucket,
	idleBucket,
	metaBucket,
}

var (
	errWorkstateRunning = &apperr.Error{
		Message: "is workstate already running? Only one process can open the database at a time",
	}

	// ErrConflict is returned when a write would replace a record that must
	// stay unique.
	ErrConflict = &apperr.Error{
		Message: "record already exists",
	}

	// ErrNotFound is returned when a record to update or delete is missing.
	ErrNotFound = &apperr.Error{
		Message: "record not found",
	}
)

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// open creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		// another process holds the file lock
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errWorkstateRunning
		}

		return nil, err
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection with every bucket in
// place and the schema migrated to the current version.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{db}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		return c.migrate(tx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return b.Put([]byte(key), value)
}

// getJSON decodes the value stored under key. A missing key yields nil.
func getJSON[T any](b *bolt.Bucket, key string) (*T, error) {
	raw := b.Get([]byte(key))
	if raw == nil {
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	return &v, nil
}

func allJSON[T any](b *bolt.Bucket) ([]T, error) {
	var out []T

	err := b.ForEach(func(_, v []byte) error {
		// nested buckets have a nil value
		if v == nil {
			return nil
		}

		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return err
		}

		out = append(out, item)

		return nil
	})

	return out, err
}
