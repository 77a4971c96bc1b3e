package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coursemates/backend/internal/friendships"
	"github.com/coursemates/backend/internal/logging"
)

// result is the envelope returned by every API endpoint.
type result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any) {
	respondJSON(ctx, w, status, result{Success: true, Data: data})
}

func respondMessage(ctx context.Context, w http.ResponseWriter, message string) {
	respondJSON(ctx, w, http.StatusOK, result{Success: true, Message: message})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, reason, message string) {
	respondJSON(ctx, w, status, result{Error: message, Reason: reason})
}

// respondStoreError maps a friendship store error onto its HTTP status and reason code.
func respondStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	status := storeErrorStatus(err)
	if status == http.StatusInternalServerError {
		respondError(ctx, w, status, "", "internal error")
		return
	}
	respondError(ctx, w, status, friendships.Code(err), err.Error())
}

func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, friendships.ErrInvalidInput), errors.Is(err, friendships.ErrSelfRequest):
		return http.StatusBadRequest
	case errors.Is(err, friendships.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, friendships.ErrAlreadyFriends),
		errors.Is(err, friendships.ErrRequestAlreadyPending),
		errors.Is(err, friendships.ErrNotPending),
		errors.Is(err, friendships.ErrNotAccepted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}
