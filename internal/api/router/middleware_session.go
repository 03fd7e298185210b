package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// requireSessionID rejects session routes whose {id} is not a session UUID
// before they reach the session store.
func requireSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := uuid.Parse(chi.URLParam(r, "id")); err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
