package store

import (
	"cmp"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/workstate/internal/models"
)

// PutEntry creates a time entry, or overwrites it if it exists already.
func (c *Client) PutEntry(e *models.TimeEntry) error {
	return c.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket([]byte(entryBucket)).
			CreateBucketIfNotExists([]byte(e.UserID))
		if err != nil {
			return err
		}

		return putJSON(b, e.ID, e)
	})
}

// GetEntry returns a user's time entry, or nil if it does not exist.
func (c *Client) GetEntry(userID, id string) (*models.TimeEntry, error) {
	var e *models.TimeEntry

	err := c.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entryBucket)).Bucket([]byte(userID))
		if b == nil {
			return nil
		}

		var err error

		e, err = getJSON[models.TimeEntry](b, id)

		return err
	})

	return e, err
}

// DeleteEntry permanently removes a user's time entry.
func (c *Client) DeleteEntry(userID, id string) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entryBucket)).Bucket([]byte(userID))
		if b == nil || b.Get([]byte(id)) == nil {
			return ErrNotFound
		}

		return b.Delete([]byte(id))
	})
}

// Entries returns all of a user's time entries, oldest first. Entries
// without a start time sort by creation time.
func (c *Client) Entries(userID string) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry

	err := c.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entryBucket)).Bucket([]byte(userID))
		if b == nil {
			return nil
		}

		var err error

		entries, err = allJSON[models.TimeEntry](b)

		return err
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b models.TimeEntry) int {
		return cmp.Compare(sortKey(&a).UnixNano(), sortKey(&b).UnixNano())
	})

	return entries, nil
}

func sortKey(e *models.TimeEntry) time.Time {
	if e.StartTime != nil {
		return *e.StartTime
	}

	return e.CreatedAt
}
