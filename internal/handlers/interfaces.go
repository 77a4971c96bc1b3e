package handlers

import (
	"context"

	"github.com/coursemates/backend/internal/models"
)

// FriendshipStore captures the relationship operations used by the friendship handlers.
type FriendshipStore interface {
	All() []models.Friendship
	Get(id string) (models.Friendship, error)
	SendRequest(fromUserID, toUserID string) (models.Friendship, error)
	AcceptRequest(id string) (models.Friendship, error)
	DeclineRequest(id string) error
	RemoveFriend(id string) error
	FriendsOf(userID string) []models.Friendship
	IncomingRequests(userID string) []models.Friendship
	OutgoingRequests(userID string) []models.Friendship
	Reset()
}

// UserDirectory resolves learner profiles.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// ActivityFeed lists course activity, newest first.
type ActivityFeed interface {
	ListFeed(ctx context.Context, limit int) ([]models.ActivityEntry, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
}

// OperationRecorder counts friendship operations by outcome.
type OperationRecorder interface {
	ObserveFriendshipOp(operation string, err error)
}
