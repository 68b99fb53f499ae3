package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thiercelieux/narrator/internal/game"
)

type UndoResponse struct {
	Applied bool          `json:"applied"`
	Command *game.Command `json:"command,omitempty"`
}

func handleUndo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		var resp UndoResponse
		l.Do(func(c *game.Controller) error {
			if cmd, ok := c.Undo(); ok {
				resp = UndoResponse{Applied: true, Command: &cmd}
			}
			return nil
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleRedo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		var resp UndoResponse
		l.Do(func(c *game.Controller) error {
			if cmd, ok := c.Redo(); ok {
				resp = UndoResponse{Applied: true, Command: &cmd}
			}
			return nil
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleRollback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checkpointID := chi.URLParam(r, "checkpointID")

		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.RollbackTo(checkpointID)
		})
		if err != nil {
			writeError(w, http.StatusNotFound, "checkpoint not found")
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleAdminEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd game.Command
		if err := readJSON(r, &cmd); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.AdminEdit(cmd)
		})
		if errors.Is(err, game.ErrNoGame) {
			writeGameError(w, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleListCheckpoints() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)

		type checkpointView struct {
			ID             string    `json:"id"`
			Label          string    `json:"label"`
			Timestamp      time.Time `json:"timestamp"`
			ActionSequence int64     `json:"actionSequence"`
		}
		views := []checkpointView{}
		l.View(func(c *game.Controller) {
			for _, cp := range c.Checkpoints() {
				views = append(views, checkpointView{
					ID:             cp.ID,
					Label:          cp.Label,
					Timestamp:      cp.Timestamp,
					ActionSequence: cp.ActionSequence,
				})
			}
		})
		writeJSON(w, http.StatusOK, views)
	}
}

func handleActionLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		var entries any
		l.View(func(c *game.Controller) {
			entries = c.ActionLog()
		})
		writeJSON(w, http.StatusOK, entries)
	}
}
