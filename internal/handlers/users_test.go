package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coursemates/backend/internal/models"
	"github.com/coursemates/backend/internal/repositories"
)

func TestUserHandlerGet(t *testing.T) {
	handler := UserHandler{Users: repositories.NewMemoryUserRepository(testUsers())}

	rec := httptest.NewRecorder()
	handler.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), "u2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var user models.User
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Name != "Bruno" {
		t.Fatalf("unexpected user %+v", user)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), "ghost"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	failing := UserHandler{Users: failingDirectory{err: errors.New("db down")}}
	rec = httptest.NewRecorder()
	failing.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/", nil), "u1"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

func TestUserHandlerList(t *testing.T) {
	rec := httptest.NewRecorder()
	UserHandler{Users: repositories.NewMemoryUserRepository(testUsers())}.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var users []models.User
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 3 || users[0].ID != "u1" {
		t.Fatalf("unexpected users %+v", users)
	}

	rec = httptest.NewRecorder()
	UserHandler{}.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without directory got %d", rec.Code)
	}
}

func testActivity(n int) []models.ActivityEntry {
	base := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]models.ActivityEntry, 0, n)
	for i := 0; i < n; i++ {
		userID := "u1"
		if i%2 == 1 {
			userID = "u2"
		}
		entries = append(entries, models.ActivityEntry{
			ID:         fmt.Sprintf("a%d", i),
			UserID:     userID,
			Kind:       models.ActivityLessonCompleted,
			CourseID:   "go-fundamentals",
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return entries
}

func TestActivityHandlerFeed(t *testing.T) {
	handler := ActivityHandler{Activity: repositories.NewMemoryActivityRepository(testActivity(250))}

	cases := []struct {
		name       string
		query      string
		wantStatus int
		wantLen    int
		wantFirst  string
	}{
		{"defaultLimit", "", http.StatusOK, defaultFeedLimit, "a249"},
		{"explicitLimit", "?limit=3", http.StatusOK, 3, "a249"},
		{"cappedLimit", "?limit=1000", http.StatusOK, maxFeedLimit, "a249"},
		{"userFilter", "?user=u1&limit=2", http.StatusOK, 2, "a248"},
		{"unknownUser", "?user=ghost", http.StatusOK, 0, ""},
		{"badLimit", "?limit=abc", http.StatusBadRequest, 0, ""},
		{"zeroLimit", "?limit=0", http.StatusBadRequest, 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/v1/activity"+tc.query, nil))
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d got %d", tc.wantStatus, rec.Code)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}

			var entries []models.ActivityEntry
			if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &entries); err != nil {
				t.Fatalf("decode entries: %v", err)
			}
			if len(entries) != tc.wantLen {
				t.Fatalf("expected %d entries got %d", tc.wantLen, len(entries))
			}
			if tc.wantFirst != "" && entries[0].ID != tc.wantFirst {
				t.Fatalf("expected newest entry %s first got %s", tc.wantFirst, entries[0].ID)
			}
		})
	}
}
