package server

import (
	"net/http"
	"strconv"

	"github.com/thiercelieux/narrator/internal/game"
)

type AccuseRequest struct {
	Accused int `json:"accused"`
}

type AccuseResponse struct {
	Condemned bool `json:"condemned"`
}

type VoteRequest struct {
	// Votes maps voter index to target index. JSON object keys are
	// strings, so they are parsed on arrival.
	Votes map[string]int `json:"votes"`
}

type TargetRequest struct {
	Target int `json:"target"`
}

func handleAccuse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AccuseRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		l := liveSession(r)
		var condemned bool
		err := l.Do(func(c *game.Controller) error {
			var err error
			condemned, err = c.Accuse(r.Context(), req.Accused)
			return err
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AccuseResponse{Condemned: condemned})
	}
}

func handleOpenVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.BeginVote()
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VoteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		votes := make(map[int]int, len(req.Votes))
		for k, v := range req.Votes {
			voter, err := strconv.Atoi(k)
			if err != nil {
				writeError(w, http.StatusBadRequest, "voter indexes must be integers")
				return
			}
			votes[voter] = v
		}

		l := liveSession(r)
		var res game.VoteResult
		err := l.Do(func(c *game.Controller) error {
			var err error
			res, err = c.Vote(r.Context(), votes)
			return err
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleResolveLynch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TargetRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		l := liveSession(r)
		var res game.VoteResult
		err := l.Do(func(c *game.Controller) error {
			var err error
			res, err = c.ResolveLynch(r.Context(), req.Target)
			return err
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleSkipLynch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.SkipLynch()
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleLastStand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TargetRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.ConfirmLastStand(r.Context(), req.Target)
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleProwlerTarget() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TargetRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.SetProwlerTarget(req.Target)
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleFinishGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		l.Do(func(c *game.Controller) error {
			c.FinishGame()
			return nil
		})
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}
