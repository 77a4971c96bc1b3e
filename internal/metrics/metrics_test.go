package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursemates/backend/internal/friendships"
)

type fixedStats friendships.Stats

func (f fixedStats) Stats() friendships.Stats { return friendships.Stats(f) }

func TestObserveFriendshipOp(t *testing.T) {
	m := New()

	m.ObserveFriendshipOp("send", nil)
	m.ObserveFriendshipOp("send", friendships.ErrSelfRequest)
	m.ObserveFriendshipOp("send", friendships.ErrSelfRequest)
	m.ObserveFriendshipOp("accept", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.friendshipOps.WithLabelValues("send", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.friendshipOps.WithLabelValues("send", "self_request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.friendshipOps.WithLabelValues("accept", "error")))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/v1/friendships", http.MethodGet, http.StatusOK, 0.01)
	m.RateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/friendships", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitDrops))
}

func TestHandlerExposesFriendshipGauges(t *testing.T) {
	m := New()
	m.TrackFriendships(fixedStats{Pending: 3, Accepted: 2})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `coursemates_friendships_live{status="pending"} 3`), body)
	assert.True(t, strings.Contains(body, `coursemates_friendships_live{status="accepted"} 2`), body)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", http.MethodGet, http.StatusOK, 0)
	m.ObserveFriendshipOp("send", nil)
	m.RateLimited()
}
