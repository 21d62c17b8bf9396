package store

import (
	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/workstate/internal/models"
)

// PutTask creates or updates a task.
func (c *Client) PutTask(t *models.Task) error {
	return c.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket([]byte(taskBucket)), t.ID, t)
	})
}

// GetTask returns a task by id, or nil if it does not exist.
func (c *Client) GetTask(id string) (*models.Task, error) {
	var t *models.Task

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		t, err = getJSON[models.Task](tx.Bucket([]byte(taskBucket)), id)

		return err
	})

	return t, err
}

// Tasks returns the tasks owned by a user.
func (c *Client) Tasks(userID string) ([]models.Task, error) {
	var tasks []models.Task

	err := c.View(func(tx *bolt.Tx) error {
		all, err := allJSON[models.Task](tx.Bucket([]byte(taskBucket)))
		if err != nil {
			return err
		}

		for i := range all {
			if all[i].UserID == userID {
				tasks = append(tasks, all[i])
			}
		}

		return nil
	})

	return tasks, err
}

// PutProject creates or updates a project.
func (c *Client) PutProject(p *models.Project) error {
	return c.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket([]byte(projectBucket)), p.ID, p)
	})
}

// GetProject returns a project by id, or nil if it does not exist.
func (c *Client) GetProject(id string) (*models.Project, error) {
	var p *models.Project

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		p, err = getJSON[models.Project](tx.Bucket([]byte(projectBucket)), id)

		return err
	})

	return p, err
}
