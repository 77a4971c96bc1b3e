package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coursemates/backend/internal/metrics"
	"github.com/coursemates/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Friendships FriendshipStore
	Users       UserDirectory
	Activity    ActivityFeed
	Metrics     *metrics.Metrics
	// Limiter throttles mutating friendship routes per client. Nil disables it.
	Limiter    middleware.RateLimiter
	AllowReset bool
}

// NewRouter wires HTTP handlers into a gorilla/mux router.
func NewRouter(deps Dependencies) *mux.Router {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users}
	activity := ActivityHandler{Activity: deps.Activity}
	friends := FriendshipHandler{
		Friendships: deps.Friendships,
		Users:       deps.Users,
		AllowReset:  deps.AllowReset,
	}

	var onReject func()
	if deps.Metrics != nil {
		friends.Metrics = deps.Metrics
		onReject = deps.Metrics.RateLimited
	}
	limited := middleware.RateLimit(deps.Limiter, "friendships", onReject)

	router := mux.NewRouter()
	if deps.Metrics != nil {
		router.Use(middleware.Monitor(deps.Metrics))
		router.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	router.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)

	// Registered on the root router so a method mismatch yields 405.
	api := prefixed{router: router, prefix: "/api/v1"}
	api.HandleFunc("/users", users.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", users.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/friends", friends.Friends).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/requests/incoming", friends.Incoming).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/requests/outgoing", friends.Outgoing).Methods(http.MethodGet)
	api.HandleFunc("/activity", activity.Feed).Methods(http.MethodGet)

	api.HandleFunc("/friendships", friends.List).Methods(http.MethodGet)
	api.Handle("/friendships", limited(http.HandlerFunc(friends.Send))).Methods(http.MethodPost)
	api.Handle("/friendships/reset", limited(http.HandlerFunc(friends.Reset))).Methods(http.MethodPost)
	api.HandleFunc("/friendships/{id}", friends.Get).Methods(http.MethodGet)
	api.Handle("/friendships/{id}", limited(http.HandlerFunc(friends.Remove))).Methods(http.MethodDelete)
	api.Handle("/friendships/{id}/accept", limited(http.HandlerFunc(friends.Accept))).Methods(http.MethodPost)
	api.Handle("/friendships/{id}/decline", limited(http.HandlerFunc(friends.Decline))).Methods(http.MethodPost)

	return router
}

type prefixed struct {
	router *mux.Router
	prefix string
}

func (p prefixed) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *mux.Route {
	return p.router.HandleFunc(p.prefix+path, f)
}

func (p prefixed) Handle(path string, h http.Handler) *mux.Route {
	return p.router.Handle(p.prefix+path, h)
}
