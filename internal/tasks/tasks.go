// Package tasks resolves the tasks and projects time is tracked against
package tasks

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/models"
)

var (
	ErrTaskNotFound = &apperr.Error{
		Message: "task %q does not exist or belongs to another user",
	}

	errProjectNotFound = &apperr.Error{
		Message: "project %q does not exist or belongs to another user",
	}

	errEmptyName = &apperr.Error{
		Message: "%s name cannot be empty",
	}

	errNegativeRate = &apperr.Error{
		Message: "billable rate cannot be negative",
	}
)

// Store is the persistence the catalog needs.
type Store interface {
	PutTask(t *models.Task) error
	GetTask(id string) (*models.Task, error)
	Tasks(userID string) ([]models.Task, error)
	PutProject(p *models.Project) error
	GetProject(id string) (*models.Project, error)
}

// Resolver answers whether a task exists for a user, and which project it
// belongs to.
type Resolver interface {
	Resolve(ctx context.Context, userID, taskID string) (*models.Task, error)
	Project(ctx context.Context, userID, projectID string) (*models.Project, error)
}

// Catalog is a Resolver backed by the local database.
type Catalog struct {
	store Store
	now   func() time.Time
}

// NewCatalog returns a Catalog backed by s.
func NewCatalog(s Store) *Catalog {
	return &Catalog{
		store: s,
		now:   time.Now,
	}
}

// Resolve returns the task if it exists and is owned by userID.
func (c *Catalog) Resolve(_ context.Context, userID, taskID string) (*models.Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, ErrTaskNotFound.Fmt(taskID)
	}

	t, err := c.store.GetTask(taskID)
	if err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	if t == nil || t.UserID != userID {
		return nil, ErrTaskNotFound.Fmt(taskID)
	}

	return t, nil
}

// Project returns the project if it exists and is owned by userID.
func (c *Catalog) Project(_ context.Context, userID, projectID string) (*models.Project, error) {
	p, err := c.store.GetProject(projectID)
	if err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	if p == nil || p.UserID != userID {
		return nil, errProjectNotFound.Fmt(projectID)
	}

	return p, nil
}

// AddProject creates a project for userID.
func (c *Catalog) AddProject(
	_ context.Context,
	userID, name string,
	rate float64,
	currency string,
) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errEmptyName.Fmt("project")
	}

	if rate < 0 {
		return nil, errNegativeRate
	}

	p := &models.Project{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		BillableRate: rate,
		Currency:     strings.ToUpper(currency),
		CreatedAt:    c.now(),
	}

	if err := c.store.PutProject(p); err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	return p, nil
}

// AddTask creates a task for userID. If projectID is set, the project must
// belong to the same user.
func (c *Catalog) AddTask(
	ctx context.Context,
	userID, name, projectID string,
	rate float64,
	currency string,
) (*models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errEmptyName.Fmt("task")
	}

	if rate < 0 {
		return nil, errNegativeRate
	}

	if projectID != "" {
		if _, err := c.Project(ctx, userID, projectID); err != nil {
			return nil, err
		}
	}

	t := &models.Task{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProjectID:    projectID,
		Name:         name,
		BillableRate: rate,
		Currency:     strings.ToUpper(currency),
		CreatedAt:    c.now(),
	}

	if err := c.store.PutTask(t); err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	return t, nil
}

// List returns the tasks of userID in natural name order.
func (c *Catalog) List(_ context.Context, userID string) ([]models.Task, error) {
	tasks, err := c.store.Tasks(userID)
	if err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}

	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}

		return 0
	})

	return tasks, nil
}
