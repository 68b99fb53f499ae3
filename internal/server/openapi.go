package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/thiercelieux/narrator/internal/game"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheck is one dependency's status in the health report.
type HealthCheck struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Narrator API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the werewolf narrator assistant.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]HealthCheck{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthCheck{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/sessions
	listSessions, _ := r.NewOperationContext(http.MethodGet, "/api/sessions")
	listSessions.SetSummary("List sessions")
	listSessions.SetDescription("Returns saved sessions, newest first.")
	listSessions.AddRespStructure([]SessionSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listSessions)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Create session")
	createSession.SetDescription("Creates a session with a cast of players and roles. The oldest session is evicted past the configured cap.")
	createSession.AddReqStructure(CreateSessionRequest{})
	createSession.AddRespStructure(SessionDoc{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{id}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}")
	getSession.SetSummary("Get session")
	getSession.AddRespStructure(SessionDoc{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// PUT /api/sessions/{id}
	renameSession, _ := r.NewOperationContext(http.MethodPut, "/api/sessions/{id}")
	renameSession.SetSummary("Rename session")
	renameSession.AddReqStructure(RenameSessionRequest{})
	renameSession.AddRespStructure(SessionDoc{}, openapi.WithHTTPStatus(http.StatusOK))
	renameSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(renameSession)

	// DELETE /api/sessions/{id}
	deleteSession, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions/{id}")
	deleteSession.SetSummary("Delete session")
	deleteSession.SetDescription("Unloads the live session and deletes the stored document.")
	deleteSession.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteSession)

	// GET /api/values/{key}
	getValue, _ := r.NewOperationContext(http.MethodGet, "/api/values/{key}")
	getValue.SetSummary("Get value")
	getValue.AddRespStructure(ValueResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getValue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getValue)

	// PUT /api/values/{key}
	putValue, _ := r.NewOperationContext(http.MethodPut, "/api/values/{key}")
	putValue.SetSummary("Set value")
	putValue.AddReqStructure(PutValueRequest{})
	putValue.AddRespStructure(ValueResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(putValue)

	// DELETE /api/values/{key}
	deleteValue, _ := r.NewOperationContext(http.MethodDelete, "/api/values/{key}")
	deleteValue.SetSummary("Delete value")
	deleteValue.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(deleteValue)

	// GET /api/live/{id}/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/live/{id}/state")
	getState.SetSummary("Get live state")
	getState.SetDescription("Returns the narrator-facing projection of the live session.")
	getState.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// POST /api/live/{id}/night/start
	nightStart, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/night/start")
	nightStart.SetSummary("Start night")
	nightStart.SetDescription("Advances to the next night: expires modifiers, draws event cards and rebuilds the step sequence.")
	nightStart.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	nightStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(nightStart)

	// POST /api/live/{id}/night/confirm
	nightConfirm, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/night/confirm")
	nightConfirm.SetSummary("Confirm night step")
	nightConfirm.SetDescription("Applies the narrator's selection for the current step. A 422 response means the step needs a selection and did not advance.")
	nightConfirm.AddReqStructure(game.Selection{})
	nightConfirm.AddRespStructure(game.StepResult{}, openapi.WithHTTPStatus(http.StatusOK))
	nightConfirm.AddRespStructure(game.StepResult{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	nightConfirm.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(nightConfirm)

	// POST /api/live/{id}/night/back
	nightBack, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/night/back")
	nightBack.SetSummary("Back one night step")
	nightBack.SetDescription("Reverts the previous step's commands and moves the cursor back.")
	nightBack.AddRespStructure(map[string]bool{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(nightBack)

	// POST /api/live/{id}/day/accuse
	accuse, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/day/accuse")
	accuse.SetSummary("Record accusation")
	accuse.SetDescription("Adds an accusation against a player. With a living town crier, three accusations condemn without a vote.")
	accuse.AddReqStructure(AccuseRequest{})
	accuse.AddRespStructure(AccuseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	accuse.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(accuse)

	// POST /api/live/{id}/day/vote/open
	openVote, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/day/vote/open")
	openVote.SetSummary("Open the vote")
	openVote.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	openVote.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(openVote)

	// POST /api/live/{id}/day/vote
	vote, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/day/vote")
	vote.SetSummary("Tally the vote")
	vote.SetDescription("Counts votes with mayor and spotlight doubling. Ties resolve onto a living scapegoat or stay open.")
	vote.AddReqStructure(VoteRequest{})
	vote.AddRespStructure(game.VoteResult{}, openapi.WithHTTPStatus(http.StatusOK))
	vote.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(vote)

	// POST /api/live/{id}/day/resolve
	resolve, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/day/resolve")
	resolve.SetSummary("Resolve an open tie")
	resolve.AddReqStructure(TargetRequest{})
	resolve.AddRespStructure(game.VoteResult{}, openapi.WithHTTPStatus(http.StatusOK))
	resolve.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(resolve)

	// POST /api/live/{id}/day/skip
	skip, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/day/skip")
	skip.SetSummary("Skip the lynch")
	skip.SetDescription("Nobody dies today. Counts toward the peacemaker's win.")
	skip.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	skip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(skip)

	// POST /api/live/{id}/last-stand
	lastStand, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/last-stand")
	lastStand.SetSummary("Resolve hunter's last stand")
	lastStand.AddReqStructure(TargetRequest{})
	lastStand.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	lastStand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(lastStand)

	// POST /api/live/{id}/prowler-target
	prowler, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/prowler-target")
	prowler.SetSummary("Set prowler bounty target")
	prowler.AddReqStructure(TargetRequest{})
	prowler.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	prowler.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(prowler)

	// POST /api/live/{id}/finish
	finish, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/finish")
	finish.SetSummary("Finish the game manually")
	finish.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(finish)

	// POST /api/live/{id}/edit
	edit, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/edit")
	edit.SetSummary("Apply a narrator hand-edit")
	edit.SetDescription("Applies a whitelisted command (kill, revive, set-mayor, silence, set-lovers) as an undoable action.")
	edit.AddReqStructure(game.Command{})
	edit.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	edit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(edit)

	// POST /api/live/{id}/undo
	undo, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/undo")
	undo.SetSummary("Undo the last action")
	undo.AddRespStructure(UndoResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(undo)

	// POST /api/live/{id}/redo
	redo, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/redo")
	redo.SetSummary("Redo the last undone action")
	redo.AddRespStructure(UndoResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(redo)

	// POST /api/live/{id}/rollback/{checkpointID}
	rollback, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/rollback/{checkpointID}")
	rollback.SetSummary("Roll back to a checkpoint")
	rollback.SetDescription("Restores the checkpointed state and prunes all later checkpoints and log entries.")
	rollback.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	rollback.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(rollback)

	// GET /api/live/{id}/checkpoints
	checkpoints, _ := r.NewOperationContext(http.MethodGet, "/api/live/{id}/checkpoints")
	checkpoints.SetSummary("List checkpoints")
	checkpoints.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(checkpoints)

	// GET /api/live/{id}/log
	actionLog, _ := r.NewOperationContext(http.MethodGet, "/api/live/{id}/log")
	actionLog.SetSummary("Read the action log")
	actionLog.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(actionLog)

	// GET /api/live/{id}/decks
	listDecks, _ := r.NewOperationContext(http.MethodGet, "/api/live/{id}/decks")
	listDecks.SetSummary("List deck gates")
	listDecks.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listDecks)

	// PUT /api/live/{id}/decks
	updateDeck, _ := r.NewOperationContext(http.MethodPut, "/api/live/{id}/decks")
	updateDeck.SetSummary("Update a deck gate")
	updateDeck.AddReqStructure(DeckUpdateRequest{})
	updateDeck.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	updateDeck.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(updateDeck)

	// PUT /api/live/{id}/campaign
	setCampaign, _ := r.NewOperationContext(http.MethodPut, "/api/live/{id}/campaign")
	setCampaign.SetSummary("Set campaign script")
	setCampaign.AddReqStructure(CampaignRequest{})
	setCampaign.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(setCampaign)

	// POST /api/live/{id}/timer
	timer, _ := r.NewOperationContext(http.MethodPost, "/api/live/{id}/timer")
	timer.SetSummary("Schedule the next-night timer")
	timer.AddReqStructure(TimerRequest{})
	timer.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	timer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(timer)

	// GET /api/live/{id}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/live/{id}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of live session updates.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/live/{id}/feed
	getFeed, _ := r.NewOperationContext(http.MethodGet, "/api/live/{id}/feed")
	getFeed.SetSummary("WebSocket event feed")
	getFeed.SetDescription("Upgrades to a WebSocket that carries the same payloads as the SSE stream.")
	getFeed.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getFeed)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
