package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thiercelieux/narrator/internal/database"
	"github.com/thiercelieux/narrator/internal/game"
	"github.com/thiercelieux/narrator/internal/migrations"
	"github.com/thiercelieux/narrator/internal/storage"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(Options{
		Addr:        ":0",
		Logger:      logger,
		DB:          db,
		KV:          storage.NewMemKV(),
		MaxSessions: 5,
	})
	t.Cleanup(func() { s.live.Close() })
	return s.srv.Handler
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

// createVillage creates a four player session and silences the random
// event decks so the night flow is deterministic.
func createVillage(t *testing.T, h http.Handler) int64 {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/api/sessions", CreateSessionRequest{
		Name:    "table one",
		Players: []string{"Alice", "Bob", "Carol", "Dave"},
		Roles:   []string{"werewolf", "seer", "witch", "villager"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("creating session: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	doc := decode[SessionDoc](t, w)

	for _, deck := range []string{"lunar", "mystic", "village"} {
		w := doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/live/%d/decks", doc.ID), DeckUpdateRequest{
			Name: deck, Enabled: false, Weight: 0,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("disabling deck %s: got %d", deck, w.Code)
		}
	}
	return doc.ID
}

func TestSessionCRUD(t *testing.T) {
	h := newTestHandler(t)
	id := createVillage(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/sessions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("listing: got %d", w.Code)
	}
	list := decode[[]SessionSummary](t, w)
	if len(list) != 1 || list[0].ID != id || list[0].PlayerCount != 4 {
		t.Fatalf("unexpected list: %+v", list)
	}

	w = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/sessions/%d", id), RenameSessionRequest{Name: "table two"})
	if w.Code != http.StatusOK {
		t.Fatalf("renaming: got %d: %s", w.Code, w.Body.String())
	}
	if doc := decode[SessionDoc](t, w); doc.Name != "table two" {
		t.Errorf("expected renamed doc, got %q", doc.Name)
	}

	w = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/sessions/%d", id), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("deleting: got %d", w.Code)
	}
	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/sessions/%d", id), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestCreateSessionRejectsBadCast(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/api/sessions", CreateSessionRequest{
		Players: []string{"Alice", "Bob"},
		Roles:   []string{"werewolf"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("mismatched roles: expected 400, got %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPost, "/api/sessions", CreateSessionRequest{
		Players: []string{"Alice"},
		Roles:   []string{"vampire"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown role: expected 400, got %d", w.Code)
	}
}

func TestNightFlowOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	id := createVillage(t, h)
	base := fmt.Sprintf("/api/live/%d", id)

	w := doJSON(t, h, http.MethodPost, base+"/night/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("night start: got %d: %s", w.Code, w.Body.String())
	}
	state := decode[StateResponse](t, w)
	if state.Phase != game.PhaseNight || state.Step != game.StepSeer {
		t.Fatalf("expected night/seer, got %s/%s", state.Phase, state.Step)
	}

	// Seer inspects the werewolf.
	w = doJSON(t, h, http.MethodPost, base+"/night/confirm", game.Selection{Targets: []int{0}})
	if w.Code != http.StatusOK {
		t.Fatalf("seer confirm: got %d: %s", w.Code, w.Body.String())
	}
	if res := decode[game.StepResult](t, w); res.NextStep != game.StepWerewolves {
		t.Fatalf("expected werewolves next, got %s", res.NextStep)
	}

	// An empty werewolf selection must not advance.
	w = doJSON(t, h, http.MethodPost, base+"/night/confirm", game.Selection{})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty selection: expected 422, got %d", w.Code)
	}
	if res := decode[game.StepResult](t, w); !res.NeedsSelection || res.Step != game.StepWerewolves {
		t.Fatalf("expected retained werewolves step, got %+v", res)
	}

	// Werewolves strike Dave, the witch saves him.
	w = doJSON(t, h, http.MethodPost, base+"/night/confirm", game.Selection{Targets: []int{3}})
	if w.Code != http.StatusOK {
		t.Fatalf("werewolves confirm: got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodPost, base+"/night/confirm", game.Selection{Heals: []int{3}})
	if w.Code != http.StatusOK {
		t.Fatalf("witch confirm: got %d: %s", w.Code, w.Body.String())
	}
	if res := decode[game.StepResult](t, w); !res.NightFinished {
		t.Fatalf("expected night finished, got %+v", res)
	}

	w = doJSON(t, h, http.MethodGet, base+"/state", nil)
	state = decode[StateResponse](t, w)
	if state.Phase != game.PhaseDayAccusation {
		t.Fatalf("expected day-accusation, got %s", state.Phase)
	}
	for _, p := range state.Players {
		if !p.Alive {
			t.Errorf("nobody should have died, but %s is dead", p.Name)
		}
	}

	// The village votes out the werewolf and wins.
	w = doJSON(t, h, http.MethodPost, base+"/day/vote/open", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("opening vote: got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodPost, base+"/day/vote", VoteRequest{
		Votes: map[string]int{"1": 0, "2": 0, "3": 0},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("voting: got %d: %s", w.Code, w.Body.String())
	}
	if res := decode[game.VoteResult](t, w); res.Eliminated != 0 {
		t.Fatalf("expected Alice eliminated, got %+v", res)
	}

	w = doJSON(t, h, http.MethodGet, base+"/state", nil)
	state = decode[StateResponse](t, w)
	if state.Outcome == nil || state.Outcome.Winner != game.WinnerVillage {
		t.Fatalf("expected village win, got %+v", state.Outcome)
	}

	// The finished game round-trips through the store.
	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/sessions/%d", id), nil)
	doc := decode[SessionDoc](t, w)
	if doc.Snapshot == nil || doc.Snapshot.Core.Phase != game.PhaseGameOver {
		t.Fatalf("expected persisted game-over snapshot, got %+v", doc.Snapshot)
	}
}

func TestUndoAndRollbackOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	id := createVillage(t, h)
	base := fmt.Sprintf("/api/live/%d", id)

	if w := doJSON(t, h, http.MethodPost, base+"/night/start", nil); w.Code != http.StatusOK {
		t.Fatalf("night start: got %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodPost, base+"/night/confirm", game.Selection{Targets: []int{0}}); w.Code != http.StatusOK {
		t.Fatalf("seer confirm: got %d", w.Code)
	}

	w := doJSON(t, h, http.MethodPost, base+"/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("undo: got %d", w.Code)
	}
	undo := decode[UndoResponse](t, w)
	if !undo.Applied || undo.Command == nil || undo.Command.Kind != game.CmdInspect {
		t.Fatalf("expected inspect undone, got %+v", undo)
	}

	w = doJSON(t, h, http.MethodPost, base+"/redo", nil)
	if redo := decode[UndoResponse](t, w); !redo.Applied {
		t.Fatalf("expected redo applied, got %+v", redo)
	}

	w = doJSON(t, h, http.MethodGet, base+"/checkpoints", nil)
	var checkpoints []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(w.Body).Decode(&checkpoints); err != nil {
		t.Fatalf("decoding checkpoints: %v", err)
	}
	if len(checkpoints) == 0 {
		t.Fatal("expected at least one checkpoint after night start")
	}

	w = doJSON(t, h, http.MethodPost, base+"/rollback/"+checkpoints[len(checkpoints)-1].ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rollback: got %d: %s", w.Code, w.Body.String())
	}
	state := decode[StateResponse](t, w)
	if state.Phase != game.PhaseNight {
		t.Fatalf("expected night phase after rollback, got %s", state.Phase)
	}

	if w := doJSON(t, h, http.MethodPost, base+"/rollback/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown checkpoint: expected 404, got %d", w.Code)
	}
}

func TestAdminEditOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	id := createVillage(t, h)
	base := fmt.Sprintf("/api/live/%d", id)

	w := doJSON(t, h, http.MethodPost, base+"/edit", game.Command{
		Kind: game.CmdKill, Label: "Storyteller ruling", Players: []int{3},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("edit: got %d: %s", w.Code, w.Body.String())
	}
	state := decode[StateResponse](t, w)
	if state.Players[3].Alive {
		t.Error("expected Dave dead after hand-edit")
	}

	w = doJSON(t, h, http.MethodPost, base+"/undo", nil)
	if undo := decode[UndoResponse](t, w); !undo.Applied || undo.Command.Kind != game.CmdKill {
		t.Fatalf("expected kill undone, got %+v", undo)
	}

	w = doJSON(t, h, http.MethodPost, base+"/edit", game.Command{Kind: game.CmdInspect})
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-editable kind: expected 400, got %d", w.Code)
	}
}

func TestValuesEndpoints(t *testing.T) {
	h := newTestHandler(t)

	w := doJSON(t, h, http.MethodGet, "/api/values/theme", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing key: expected 404, got %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPut, "/api/values/theme", PutValueRequest{Value: "dark"})
	if w.Code != http.StatusOK {
		t.Fatalf("put: got %d", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/api/values/theme", nil)
	if v := decode[ValueResponse](t, w); v.Value != "dark" {
		t.Fatalf("expected dark, got %q", v.Value)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/values/theme", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/values/theme", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestLiveSessionNotFound(t *testing.T) {
	h := newTestHandler(t)

	if w := doJSON(t, h, http.MethodGet, "/api/live/12345/state", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown live session, got %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/live/abc/state", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed id, got %d", w.Code)
	}
}
