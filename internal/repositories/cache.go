package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/coursemates/backend/internal/models"
)

type cachedUser struct {
	user    models.User
	expires time.Time
}

// CachingUserRepository wraps another UserRepository with a TTL cache of
// single-user lookups. Misses are not cached.
type CachingUserRepository struct {
	base UserRepository
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cachedUser
}

// NewCachingUserRepository caches lookups against base for ttl.
func NewCachingUserRepository(base UserRepository, ttl time.Duration) *CachingUserRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingUserRepository{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cachedUser),
	}
}

// FindByID returns a cached profile when fresh, otherwise it delegates to the
// underlying repository and stores the result.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[id]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.user.Clone(), nil
	}

	user, err := c.base.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	c.mu.Lock()
	c.items[id] = cachedUser{user: user.Clone(), expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return user, nil
}

// List always reads through; listings are not cached.
func (c *CachingUserRepository) List(ctx context.Context) ([]models.User, error) {
	return c.base.List(ctx)
}

var _ UserRepository = (*CachingUserRepository)(nil)
