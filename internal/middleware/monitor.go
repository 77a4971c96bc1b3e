package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RequestObserver records completed requests.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, seconds float64)
}

// Monitor reports every request to obs, labelled by the matched route
// template so ids in paths do not explode label cardinality.
func Monitor(obs RequestObserver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(wrapped, r)

			obs.ObserveRequest(routeTemplate(r), r.Method, wrapped.Status(), time.Since(start).Seconds())
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
