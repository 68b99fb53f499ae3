package server

import (
	"net/http"
	"strings"

	"github.com/thiercelieux/narrator/internal/deck"
)

type DeckUpdateRequest struct {
	Name    string  `json:"name"`
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"`
}

type CampaignRequest struct {
	Entries []deck.CampaignEntry `json:"entries"`
}

func handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := liveSession(r)
		var decks map[string]deck.DeckConfig
		l.ViewDecks(func(e *deck.Evaluator) {
			decks = e.Decks()
		})
		writeJSON(w, http.StatusOK, decks)
	}
}

func handleUpdateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeckUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "deck name is required")
			return
		}
		if req.Weight < 0 || req.Weight > 3 {
			writeError(w, http.StatusBadRequest, "weight must be in [0,3]")
			return
		}

		l := liveSession(r)
		var decks map[string]deck.DeckConfig
		l.DoDecks(func(e *deck.Evaluator) {
			e.SetDeck(req.Name, deck.DeckConfig{Enabled: req.Enabled, Weight: req.Weight})
			decks = e.Decks()
		})
		writeJSON(w, http.StatusOK, decks)
	}
}

func handleSetCampaign() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CampaignRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		for _, e := range req.Entries {
			if e.Night < 1 || e.CardID == "" {
				writeError(w, http.StatusBadRequest, "entries need night >= 1 and a card id")
				return
			}
		}

		l := liveSession(r)
		l.DoDecks(func(e *deck.Evaluator) {
			e.SetCampaign(req.Entries)
		})
		writeJSON(w, http.StatusOK, req.Entries)
	}
}
