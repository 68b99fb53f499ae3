package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thiercelieux/narrator/internal/storage"
)

type ValueResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type PutValueRequest struct {
	Value string `json:"value"`
}

func handleGetValue(kv storage.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		value, err := kv.Get(r.Context(), key)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "key not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ValueResponse{Key: key, Value: value})
	}
}

func handlePutValue(kv storage.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		var req PutValueRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := kv.Set(r.Context(), key, req.Value); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ValueResponse{Key: key, Value: req.Value})
	}
}

func handleDeleteValue(kv storage.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if err := kv.Delete(r.Context(), key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
