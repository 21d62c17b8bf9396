package tasks

import (
	"context"
	"errors"
)

// Rate is a resolved billable rate.
type Rate struct {
	Currency string
	Amount   float64
}

// Billable reports whether a positive rate was found.
func (r Rate) Billable() bool {
	return r.Amount > 0
}

// ResolveRate applies the rate precedence task > project > user default.
// A task without a rate of its own and without a project is not billable;
// the user default only applies to tasks that belong to a project.
func ResolveRate(
	ctx context.Context,
	r Resolver,
	userID string,
	taskID string,
	fallback Rate,
) (Rate, error) {
	task, err := r.Resolve(ctx, userID, taskID)
	if err != nil {
		return Rate{}, err
	}

	currency := func(c string) string {
		if c != "" {
			return c
		}

		return fallback.Currency
	}

	if task.BillableRate > 0 {
		return Rate{Amount: task.BillableRate, Currency: currency(task.Currency)}, nil
	}

	if task.ProjectID == "" {
		return Rate{}, nil
	}

	p, err := r.Project(ctx, userID, task.ProjectID)
	if err != nil && !errors.Is(err, errProjectNotFound) {
		return Rate{}, err
	}

	if p != nil && p.BillableRate > 0 {
		return Rate{Amount: p.BillableRate, Currency: currency(p.Currency)}, nil
	}

	if fallback.Amount > 0 {
		return fallback, nil
	}

	return Rate{}, nil
}
