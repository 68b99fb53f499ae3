package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeyLive ctxKey = iota

// liveMiddleware resolves {id} to a loaded live session, constructing it
// from the store on first touch.
func liveMiddleware(live *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}

			l, err := live.Get(r.Context(), id)
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyLive, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func liveSession(r *http.Request) *LiveSession {
	return r.Context().Value(ctxKeyLive).(*LiveSession)
}
