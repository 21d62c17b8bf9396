package entries

import (
	"slices"
	"time"

	"github.com/ayoisaiah/workstate/internal/models"
)

// Summary totals a set of entries.
type Summary struct {
	// Revenue is keyed by currency.
	Revenue  map[string]float64 `json:"revenue"`
	Total    time.Duration      `json:"total"`
	Billable time.Duration      `json:"billable"`
	Entries  int                `json:"entries"`
}

// Currencies returns the currencies with revenue in a stable order.
func (s Summary) Currencies() []string {
	out := make([]string, 0, len(s.Revenue))
	for c := range s.Revenue {
		out = append(out, c)
	}

	slices.Sort(out)

	return out
}

// Revenue totals time and earnings. Only billable entries count towards
// revenue.
func Revenue(list []models.TimeEntry) Summary {
	s := Summary{
		Revenue: make(map[string]float64),
	}

	for i := range list {
		e := &list[i]

		s.Entries++
		s.Total += e.Duration

		if !e.Billable {
			continue
		}

		s.Billable += e.Duration

		if amount := e.Revenue(); amount > 0 {
			s.Revenue[e.Currency] += amount
		}
	}

	return s
}
