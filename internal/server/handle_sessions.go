package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type CreateSessionRequest struct {
	Name    string     `json:"name"`
	Players []string   `json:"players"`
	Roles   []string   `json:"roles"`
	Jobs    [][]string `json:"jobs,omitempty"`
}

type RenameSessionRequest struct {
	Name string `json:"name"`
}

func handleListSessions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessions(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleCreateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if len(req.Players) == 0 {
			writeError(w, http.StatusBadRequest, "players are required")
			return
		}
		if len(req.Players) != len(req.Roles) {
			writeError(w, http.StatusBadRequest, "players and roles must align")
			return
		}
		if req.Jobs != nil && len(req.Jobs) != len(req.Players) {
			writeError(w, http.StatusBadRequest, "jobs must align with players")
			return
		}
		if _, _, err := parseCast(req.Roles, req.Jobs); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		doc, err := store.CreateSession(r.Context(), SessionDoc{
			Name:    req.Name,
			Players: req.Players,
			Roles:   req.Roles,
			Jobs:    req.Jobs,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	}
}

func handleGetSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		doc, err := store.GetSession(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func handleRenameSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}

		var req RenameSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		doc, err := store.GetSession(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		doc.Name = req.Name
		if err := store.SaveSession(r.Context(), doc); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func handleDeleteSession(store Store, live *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		live.Drop(id)
		err = store.DeleteSession(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
