package repositories

import (
	"context"
	"sort"

	"github.com/coursemates/backend/internal/models"
)

// MemoryUserRepository serves users from an immutable in-memory table.
type MemoryUserRepository struct {
	order []string
	users map[string]models.User
}

// NewMemoryUserRepository copies users into a lookup table keyed by id.
// List returns users in the order supplied.
func NewMemoryUserRepository(users []models.User) *MemoryUserRepository {
	r := &MemoryUserRepository{
		order: make([]string, 0, len(users)),
		users: make(map[string]models.User, len(users)),
	}
	for _, u := range users {
		if _, dup := r.users[u.ID]; !dup {
			r.order = append(r.order, u.ID)
		}
		r.users[u.ID] = u.Clone()
	}
	return r
}

// FindByID returns the user with the given id.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u.Clone(), nil
}

// List returns every user.
func (r *MemoryUserRepository) List(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id].Clone())
	}
	return out, nil
}

// MemoryActivityRepository serves a fixed activity feed.
type MemoryActivityRepository struct {
	entries []models.ActivityEntry
}

// NewMemoryActivityRepository copies entries and orders them newest first.
func NewMemoryActivityRepository(entries []models.ActivityEntry) *MemoryActivityRepository {
	sorted := append([]models.ActivityEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.After(sorted[j].OccurredAt)
	})
	return &MemoryActivityRepository{entries: sorted}
}

// ListFeed returns up to limit entries across all users.
func (r *MemoryActivityRepository) ListFeed(_ context.Context, limit int) ([]models.ActivityEntry, error) {
	return r.collect(limit, func(models.ActivityEntry) bool { return true }), nil
}

// ListForUser returns up to limit entries produced by userID.
func (r *MemoryActivityRepository) ListForUser(_ context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	return r.collect(limit, func(e models.ActivityEntry) bool { return e.UserID == userID }), nil
}

func (r *MemoryActivityRepository) collect(limit int, keep func(models.ActivityEntry) bool) []models.ActivityEntry {
	out := []models.ActivityEntry{}
	for _, e := range r.entries {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

var _ UserRepository = (*MemoryUserRepository)(nil)
var _ ActivityRepository = (*MemoryActivityRepository)(nil)
