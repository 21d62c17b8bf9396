package timerstate

import (
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/models"
)

var (
	// errCacheConflict is returned by Cache.Add when the slot is taken.
	errCacheConflict = &apperr.Error{
		Message: "cache slot is occupied",
	}

	// errCacheMiss is returned by Cache.Replace when the timer is not cached.
	errCacheMiss = &apperr.Error{
		Message: "timer is not cached",
	}
)

// Cache is the low-latency copy of the running timers, keyed by user.
// Implementations may fail at any time; the store treats every error as
// "cache unavailable".
type Cache interface {
	Get(userID string) (*models.ActiveTimer, error)
	// Add stores t only if its user has no cached timer.
	Add(t *models.ActiveTimer) error
	Set(t *models.ActiveTimer) error
	// Replace stores t only if the cached timer of its user has t's id.
	Replace(t *models.ActiveTimer) error
	// DeleteIf removes the cached timer of userID if its id is timerID.
	DeleteIf(userID, timerID string) error
	Delete(userID string) error
	Items() ([]models.ActiveTimer, error)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	c *gocache.Cache
	// mu makes Replace and DeleteIf a single step with respect to other
	// writers.
	mu sync.Mutex
}

// NewMemoryCache returns an empty MemoryCache. Entries never expire.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		c: gocache.New(gocache.NoExpiration, 0),
	}
}

func (m *MemoryCache) Get(userID string) (*models.ActiveTimer, error) {
	v, ok := m.c.Get(userID)
	if !ok {
		return nil, nil
	}

	t, _ := v.(models.ActiveTimer)

	return &t, nil
}

func (m *MemoryCache) Add(t *models.ActiveTimer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.c.Add(t.UserID, *t, gocache.NoExpiration); err != nil {
		return errCacheConflict
	}

	return nil
}

func (m *MemoryCache) Set(t *models.ActiveTimer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.c.Set(t.UserID, *t, gocache.NoExpiration)

	return nil
}

func (m *MemoryCache) Replace(t *models.ActiveTimer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.c.Get(t.UserID)
	if !ok {
		return errCacheMiss
	}

	if cached, _ := v.(models.ActiveTimer); cached.ID != t.ID {
		return errCacheMiss
	}

	m.c.Set(t.UserID, *t, gocache.NoExpiration)

	return nil
}

func (m *MemoryCache) DeleteIf(userID, timerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.c.Get(userID)
	if !ok {
		return nil
	}

	if t, _ := v.(models.ActiveTimer); t.ID == timerID {
		m.c.Delete(userID)
	}

	return nil
}

func (m *MemoryCache) Delete(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.c.Delete(userID)

	return nil
}

func (m *MemoryCache) Items() ([]models.ActiveTimer, error) {
	items := m.c.Items()

	timers := make([]models.ActiveTimer, 0, len(items))

	for _, item := range items {
		if t, ok := item.Object.(models.ActiveTimer); ok {
			timers = append(timers, t)
		}
	}

	return timers, nil
}
