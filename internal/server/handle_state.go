package server

import (
	"net/http"
	"time"

	"github.com/thiercelieux/narrator/internal/game"
	"github.com/thiercelieux/narrator/internal/sched"
)

type PlayerView struct {
	Index int      `json:"index"`
	Name  string   `json:"name"`
	Role  string   `json:"role"`
	Jobs  []string `json:"jobs,omitempty"`
	Alive bool     `json:"alive"`
}

type StateResponse struct {
	Phase          game.Phase           `json:"phase"`
	Step           game.StepID          `json:"step,omitempty"`
	Prompt         string               `json:"prompt,omitempty"`
	Night          int                  `json:"night"`
	Day            int                  `json:"day"`
	PeaceDays      int                  `json:"peaceDays"`
	Players        []PlayerView         `json:"players"`
	Mayor          int                  `json:"mayor"`
	Silenced       int                  `json:"silenced"`
	Accusations    []int                `json:"accusations,omitempty"`
	Modifiers      []sched.Modifier     `json:"modifiers"`
	Queued         []sched.QueuedEffect `json:"queued"`
	PendingHunter  *int                 `json:"pendingHunter,omitempty"`
	Outcome        *game.Outcome        `json:"outcome,omitempty"`
	TimerRemaining *float64             `json:"timerRemainingSeconds,omitempty"`
}

// stateResponse builds the narrator-facing state projection under the
// session lock.
func stateResponse(l *LiveSession) StateResponse {
	var resp StateResponse
	l.View(func(c *game.Controller) {
		resp.Phase = c.Phase()
		if step, ok := c.CurrentStep(); ok {
			resp.Step = step
			resp.Prompt = game.StepPrompt(step)
		}
		if hunter, ok := c.PendingLastStand(); ok {
			resp.PendingHunter = &hunter
		}
		resp.Outcome = c.Outcome()
		if remaining, ok := c.NextNightRemaining(); ok {
			secs := remaining.Seconds()
			resp.TimerRemaining = &secs
		}

		st := c.State()
		if st == nil {
			return
		}
		resp.Night = st.Night
		resp.Day = st.Day
		resp.PeaceDays = st.PeaceDays
		resp.Mayor = st.Mayor
		resp.Silenced = st.Silenced
		resp.Accusations = st.Trackers.Accusations
		for i, name := range st.Players {
			var jobs []string
			for _, j := range st.Jobs[i] {
				jobs = append(jobs, string(j))
			}
			resp.Players = append(resp.Players, PlayerView{
				Index: i,
				Name:  name,
				Role:  string(st.Roles[i]),
				Jobs:  jobs,
				Alive: !st.Dead[i],
			})
		}

		schedState := c.SessionSnapshot().Core.Scheduler
		resp.Modifiers = schedState.Modifiers
		resp.Queued = schedState.Queued
	})
	return resp
}

func handleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, stateResponse(liveSession(r)))
	}
}

// TimerRequest schedules the automatic next-night transition.
type TimerRequest struct {
	Seconds float64 `json:"seconds"`
}

func handleScheduleTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Seconds <= 0 {
			writeError(w, http.StatusBadRequest, "seconds must be positive")
			return
		}

		l := liveSession(r)
		err := l.Do(func(c *game.Controller) error {
			return c.ScheduleNextNight(time.Duration(req.Seconds * float64(time.Second)))
		})
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handlePauseTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		var ok bool
		l.Do(func(c *game.Controller) error {
			ok = c.PauseNextNight()
			return nil
		})
		if !ok {
			writeError(w, http.StatusConflict, "no running timer")
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleResumeTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		var ok bool
		l.Do(func(c *game.Controller) error {
			ok = c.ResumeNextNight()
			return nil
		})
		if !ok {
			writeError(w, http.StatusConflict, "no paused timer")
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(l))
	}
}

func handleCancelTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		l.Do(func(c *game.Controller) error {
			c.CancelNextNight()
			return nil
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
