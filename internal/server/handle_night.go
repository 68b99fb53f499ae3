package server

import (
	"errors"
	"net/http"

	"github.com/thiercelieux/narrator/internal/game"
)

// writeGameError maps the controller's sentinel errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNoGame),
		errors.Is(err, game.ErrPhase),
		errors.Is(err, game.ErrGameOver):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleNightStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.StartNight(r.Context())
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleNightConfirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sel game.Selection
		if err := readJSON(r, &sel); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		l := liveSession(r)
		var res game.StepResult
		err := l.Do(func(c *game.Controller) error {
			var err error
			res, err = c.ConfirmNightStep(r.Context(), sel)
			return err
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		if res.NeedsSelection {
			// The step did not advance; the narrator must choose again.
			writeJSON(w, http.StatusUnprocessableEntity, res)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleNightBack() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		var backed bool
		l.Do(func(c *game.Controller) error {
			backed = c.BackNightStep()
			return nil
		})
		writeJSON(w, http.StatusOK, map[string]bool{"backed": backed})
	}
}
