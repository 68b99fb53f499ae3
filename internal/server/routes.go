package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, opts Options, store Store, live *Registry, broker *Broker) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Narrator API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, opts.DB, opts.Redis))

	// Session documents.
	r.Get("/api/sessions", handleListSessions(store))
	r.Post("/api/sessions", handleCreateSession(store))
	r.Get("/api/sessions/{id}", handleGetSession(store))
	r.Put("/api/sessions/{id}", handleRenameSession(store))
	r.Delete("/api/sessions/{id}", handleDeleteSession(store, live))

	// Generic value store.
	r.Get("/api/values/{key}", handleGetValue(opts.KV))
	r.Put("/api/values/{key}", handlePutValue(opts.KV))
	r.Delete("/api/values/{key}", handleDeleteValue(opts.KV))

	// Live narrator endpoints — {id} resolved by liveMiddleware.
	r.Route("/api/live/{id}", func(r chi.Router) {
		r.Use(liveMiddleware(live))

		r.Get("/state", handleState())
		r.Get("/events", handleEvents(broker))
		r.Get("/feed", handleFeed(broker, logger))

		r.Post("/night/start", handleNightStart())
		r.Post("/night/confirm", handleNightConfirm())
		r.Post("/night/back", handleNightBack())

		r.Post("/day/accuse", handleAccuse())
		r.Post("/day/vote/open", handleOpenVote())
		r.Post("/day/vote", handleVote())
		r.Post("/day/resolve", handleResolveLynch())
		r.Post("/day/skip", handleSkipLynch())

		r.Post("/last-stand", handleLastStand())
		r.Post("/prowler-target", handleProwlerTarget())
		r.Post("/finish", handleFinishGame())

		r.Post("/edit", handleAdminEdit())
		r.Post("/undo", handleUndo())
		r.Post("/redo", handleRedo())
		r.Post("/rollback/{checkpointID}", handleRollback())
		r.Get("/checkpoints", handleListCheckpoints())
		r.Get("/log", handleActionLog())

		r.Get("/decks", handleListDecks())
		r.Put("/decks", handleUpdateDeck())
		r.Put("/campaign", handleSetCampaign())

		r.Post("/timer", handleScheduleTimer())
		r.Post("/timer/pause", handlePauseTimer())
		r.Post("/timer/resume", handleResumeTimer())
		r.Delete("/timer", handleCancelTimer())
	})

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}
