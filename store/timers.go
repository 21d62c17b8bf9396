package store

import (
	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/workstate/internal/models"
)

// InsertTimer stores t as the running timer of its user. The check and the
// write happen in one transaction, so two concurrent inserts for the same
// user cannot both succeed.
func (c *Client) InsertTimer(t *models.ActiveTimer) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(timerBucket))

		if b.Get([]byte(t.UserID)) != nil {
			return ErrConflict
		}

		return putJSON(b, t.UserID, t)
	})
}

// ReplaceTimer overwrites the running timer of t's user, provided it is the
// same timer.
func (c *Client) ReplaceTimer(t *models.ActiveTimer) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(timerBucket))

		existing, err := getJSON[models.ActiveTimer](b, t.UserID)
		if err != nil {
			return err
		}

		if existing == nil || existing.ID != t.ID {
			return ErrNotFound
		}

		return putJSON(b, t.UserID, t)
	})
}

// GetTimer returns the running timer of a user, or nil if there is none.
func (c *Client) GetTimer(userID string) (*models.ActiveTimer, error) {
	var t *models.ActiveTimer

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		t, err = getJSON[models.ActiveTimer](tx.Bucket([]byte(timerBucket)), userID)

		return err
	})

	return t, err
}

// DeleteTimer removes the running timer of a user. Deleting a missing timer
// is not an error.
func (c *Client) DeleteTimer(userID string) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(timerBucket)).Delete([]byte(userID))
	})
}

// Timers returns every running timer.
func (c *Client) Timers() ([]models.ActiveTimer, error) {
	var timers []models.ActiveTimer

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		timers, err = allJSON[models.ActiveTimer](tx.Bucket([]byte(timerBucket)))

		return err
	})

	return timers, err
}
