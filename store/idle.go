package store

import (
	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/workstate/internal/models"
)

// InsertIdleEvent records an unresolved idle event for its user. It fails
// with ErrConflict while another event is pending for the same user.
func (c *Client) InsertIdleEvent(e *models.IdleEvent) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(idleBucket))

		if b.Get([]byte(e.UserID)) != nil {
			return ErrConflict
		}

		return putJSON(b, e.UserID, e)
	})
}

// GetIdleEvent returns the pending idle event of a user, or nil.
func (c *Client) GetIdleEvent(userID string) (*models.IdleEvent, error) {
	var e *models.IdleEvent

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		e, err = getJSON[models.IdleEvent](tx.Bucket([]byte(idleBucket)), userID)

		return err
	})

	return e, err
}

// DeleteIdleEvent removes the pending idle event of a user, if any.
func (c *Client) DeleteIdleEvent(userID string) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(idleBucket)).Delete([]byte(userID))
	})
}
