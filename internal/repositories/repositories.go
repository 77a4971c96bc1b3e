package repositories

import (
	"context"

	"github.com/coursemates/backend/internal/models"
)

// UserRepository is the read-only user directory.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// ActivityRepository exposes the read-only course activity feed, newest first.
// A limit <= 0 means no limit.
type ActivityRepository interface {
	ListFeed(ctx context.Context, limit int) ([]models.ActivityEntry, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
}
