package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/coursemates/backend/internal/friendships"
	"github.com/coursemates/backend/internal/logging"
	"github.com/coursemates/backend/internal/models"
	"github.com/coursemates/backend/internal/repositories"
)

// FriendshipHandler exposes the friendship store over HTTP.
type FriendshipHandler struct {
	Friendships FriendshipStore
	Users       UserDirectory
	Metrics     OperationRecorder
	AllowReset  bool
}

type sendRequestPayload struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
}

// friendshipView is a friendship record together with the other party's profile.
type friendshipView struct {
	models.Friendship
	Counterpart *models.User `json:"counterpart,omitempty"`
}

// List handles GET /api/v1/friendships.
func (h FriendshipHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}
	respondData(ctx, w, http.StatusOK, h.Friendships.All())
}

// Get handles GET /api/v1/friendships/{id}.
func (h FriendshipHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}

	friendship, err := h.Friendships.Get(mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(ctx, w, err)
		return
	}
	respondData(ctx, w, http.StatusOK, friendship)
}

// Send handles POST /api/v1/friendships.
func (h FriendshipHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}

	var req sendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid friend request payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	ctx, op := logging.StartOperation(ctx, "friendships.send")

	// Malformed pairs go straight to the store so its validation order wins.
	if h.Users != nil && wellFormedPair(req.FromUserID, req.ToUserID) {
		if status, err := h.checkUsersExist(ctx, req.FromUserID, req.ToUserID); err != nil {
			if status != http.StatusNotFound {
				op.End(err, "")
				respondError(ctx, w, status, "", "user directory unavailable")
				return
			}
			op.End(err, "unknown_user")
			respondError(ctx, w, status, "unknown_user", err.Error())
			return
		}
	}

	friendship, err := h.Friendships.SendRequest(req.FromUserID, req.ToUserID)
	h.finish(op, "send", err)
	if err != nil {
		respondStoreError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, result{Success: true, Data: friendship, Message: "friend request sent"})
}

// Accept handles POST /api/v1/friendships/{id}/accept.
func (h FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}

	ctx, op := logging.StartOperation(ctx, "friendships.accept")
	friendship, err := h.Friendships.AcceptRequest(mux.Vars(r)["id"])
	h.finish(op, "accept", err)
	if err != nil {
		respondStoreError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result{Success: true, Data: friendship, Message: "friend request accepted"})
}

// Decline handles POST /api/v1/friendships/{id}/decline.
func (h FriendshipHandler) Decline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}

	ctx, op := logging.StartOperation(ctx, "friendships.decline")
	err := h.Friendships.DeclineRequest(mux.Vars(r)["id"])
	h.finish(op, "decline", err)
	if err != nil {
		respondStoreError(ctx, w, err)
		return
	}
	respondMessage(ctx, w, "friend request declined")
}

// Remove handles DELETE /api/v1/friendships/{id}.
func (h FriendshipHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}

	ctx, op := logging.StartOperation(ctx, "friendships.remove")
	err := h.Friendships.RemoveFriend(mux.Vars(r)["id"])
	h.finish(op, "remove", err)
	if err != nil {
		respondStoreError(ctx, w, err)
		return
	}
	respondMessage(ctx, w, "friend removed")
}

// Reset handles POST /api/v1/friendships/reset. It is refused unless resets
// are enabled in configuration.
func (h FriendshipHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}
	if !h.AllowReset {
		respondError(ctx, w, http.StatusForbidden, "reset_disabled", "reset is disabled")
		return
	}

	ctx, op := logging.StartOperation(ctx, "friendships.reset")
	h.Friendships.Reset()
	h.finish(op, "reset", nil)
	respondJSON(ctx, w, http.StatusOK, result{Success: true, Data: h.Friendships.All(), Message: "friendships reset"})
}

// Friends handles GET /api/v1/users/{id}/friends.
func (h FriendshipHandler) Friends(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, h.friendsOf)
}

// Incoming handles GET /api/v1/users/{id}/requests/incoming.
func (h FriendshipHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, h.incoming)
}

// Outgoing handles GET /api/v1/users/{id}/requests/outgoing.
func (h FriendshipHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, h.outgoing)
}

func (h FriendshipHandler) friendsOf(userID string) []models.Friendship {
	return h.Friendships.FriendsOf(userID)
}

func (h FriendshipHandler) incoming(userID string) []models.Friendship {
	return h.Friendships.IncomingRequests(userID)
}

func (h FriendshipHandler) outgoing(userID string) []models.Friendship {
	return h.Friendships.OutgoingRequests(userID)
}

func (h FriendshipHandler) listFor(w http.ResponseWriter, r *http.Request, query func(string) []models.Friendship) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}

	userID := strings.TrimSpace(mux.Vars(r)["id"])
	records := query(userID)

	views, err := h.enrich(ctx, userID, records)
	if err != nil {
		logging.FromContext(ctx).Error("resolve counterpart profiles", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "", "user directory unavailable")
		return
	}
	respondData(ctx, w, http.StatusOK, views)
}

// enrich attaches the counterpart profile to each record. Profiles missing
// from the directory are left empty.
func (h FriendshipHandler) enrich(ctx context.Context, userID string, records []models.Friendship) ([]friendshipView, error) {
	views := make([]friendshipView, 0, len(records))
	profiles := make(map[string]*models.User)

	for _, record := range records {
		view := friendshipView{Friendship: record}
		if h.Users != nil {
			otherID := record.Counterpart(userID)
			profile, seen := profiles[otherID]
			if !seen {
				user, err := h.Users.FindByID(ctx, otherID)
				switch {
				case err == nil:
					profile = &user
				case errors.Is(err, repositories.ErrNotFound):
				default:
					return nil, fmt.Errorf("find user %s: %w", otherID, err)
				}
				profiles[otherID] = profile
			}
			view.Counterpart = profile
		}
		views = append(views, view)
	}
	return views, nil
}

func wellFormedPair(from, to string) bool {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	return from != "" && to != "" && from != to
}

func (h FriendshipHandler) checkUsersExist(ctx context.Context, ids ...string) (int, error) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, err := h.Users.FindByID(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return http.StatusNotFound, fmt.Errorf("unknown user %q", id)
			}
			return http.StatusInternalServerError, fmt.Errorf("find user %s: %w", id, err)
		}
	}
	return http.StatusOK, nil
}

func (h FriendshipHandler) ready(ctx context.Context, w http.ResponseWriter) bool {
	if h.Friendships != nil {
		return true
	}
	logging.FromContext(ctx).Error("friendship store unavailable")
	respondError(ctx, w, http.StatusInternalServerError, "", "friendship service unavailable")
	return false
}

func (h FriendshipHandler) finish(op *logging.Operation, name string, err error) {
	op.End(err, friendships.Code(err))
	if h.Metrics != nil {
		h.Metrics.ObserveFriendshipOp(name, err)
	}
}
