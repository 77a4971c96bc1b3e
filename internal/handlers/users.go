package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/coursemates/backend/internal/logging"
	"github.com/coursemates/backend/internal/models"
	"github.com/coursemates/backend/internal/repositories"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// UserHandler serves the read-only learner directory.
type UserHandler struct {
	Users UserDirectory
}

// List handles GET /api/v1/users.
func (h UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil {
		logger.Error("user directory unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "", "user directory unavailable")
		return
	}

	users, err := h.Users.List(ctx)
	if err != nil {
		logger.Error("list users", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "", "failed to list users")
		return
	}
	respondData(ctx, w, http.StatusOK, users)
}

// Get handles GET /api/v1/users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil {
		logger.Error("user directory unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "", "user directory unavailable")
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["id"])
	user, err := h.Users.FindByID(ctx, id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "unknown_user", "user not found")
	case err != nil:
		logger.Error("find user", "userId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "", "failed to load user")
	default:
		respondData(ctx, w, http.StatusOK, user)
	}
}

// ActivityHandler serves the course activity feed.
type ActivityHandler struct {
	Activity ActivityFeed
}

// Feed handles GET /api/v1/activity?user=&limit=.
func (h ActivityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Activity == nil {
		logger.Error("activity feed unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "", "activity feed unavailable")
		return
	}

	limit := defaultFeedLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(ctx, w, http.StatusBadRequest, "invalid_input", "limit must be a positive integer")
			return
		}
		limit = min(n, maxFeedLimit)
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user"))

	var (
		entries []models.ActivityEntry
		err     error
	)
	if userID != "" {
		entries, err = h.Activity.ListForUser(ctx, userID, limit)
	} else {
		entries, err = h.Activity.ListFeed(ctx, limit)
	}
	if err != nil {
		logger.Error("list activity", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "", "failed to load activity")
		return
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	respondData(ctx, w, http.StatusOK, entries)
}
