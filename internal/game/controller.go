package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thiercelieux/narrator/internal/deck"
	"github.com/thiercelieux/narrator/internal/replay"
	"github.com/thiercelieux/narrator/internal/sched"
	"github.com/thiercelieux/narrator/internal/storage"
)

// Phase is the controller's current position in the game cycle.
type Phase string

const (
	PhaseSetup         Phase = "setup"
	PhaseNight         Phase = "night"
	PhaseDayAccusation Phase = "day-accusation"
	PhaseDayVote       Phase = "day-vote"
	PhaseDayLynch      Phase = "day-lynch"
	PhaseGameOver      Phase = "game-over"
)

var (
	// ErrPhase rejects an operation invoked outside its legal phase.
	ErrPhase = errors.New("game: operation not valid in current phase")
	// ErrGameOver rejects any transition after the terminal state.
	ErrGameOver = errors.New("game: the game is over")
	// ErrNoGame rejects operations before roles are assigned.
	ErrNoGame = errors.New("game: no game in progress")
)

// Presenter receives narrator-facing output after each transition. The core
// passes identifiers and resolved text; formatting and localization live in
// the collaborator.
type Presenter interface {
	Present(u Update)
}

// Update is the structured bundle handed to the display collaborator.
type Update struct {
	Phase        Phase                `json:"phase"`
	Step         StepID               `json:"step,omitempty"`
	Prompt       string               `json:"prompt,omitempty"`
	Log          []string             `json:"log,omitempty"`
	NarratorNote string               `json:"narratorNote,omitempty"`
	Alive        []string             `json:"alive"`
	RoleCounts   map[Role]int         `json:"roleCounts"`
	Modifiers    []sched.Modifier     `json:"modifiers"`
	Queued       []sched.QueuedEffect `json:"queued"`
	Outcome      *Outcome             `json:"outcome,omitempty"`
}

// Selection is a resolved confirmation from the narrator: the chosen player
// indexes for the current prompt. The core never assumes a confirmation
// resolves synchronously; it simply receives the result here.
type Selection struct {
	Targets []int `json:"targets"`
	Heals   []int `json:"heals,omitempty"`
	Poisons []int `json:"poisons,omitempty"`
}

// StepResult reports one night-step confirmation. When NeedsSelection is
// set the step did not advance and the narrator must choose again; nothing
// of the step's prior state is discarded.
type StepResult struct {
	Step           StepID `json:"step"`
	NeedsSelection bool   `json:"needsSelection,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	NightFinished  bool   `json:"nightFinished,omitempty"`
	NextStep       StepID `json:"nextStep,omitempty"`
	Skipped        bool   `json:"skipped,omitempty"`
}

// VoteResult reports a day-vote tally.
type VoteResult struct {
	Eliminated int   `json:"eliminated"` // -1 when nobody died
	Tie        bool  `json:"tie,omitempty"`
	Candidates []int `json:"candidates,omitempty"`
	Scapegoat  bool  `json:"scapegoat,omitempty"`
}

// TimerEvent is one entry of the timer history persisted with a session.
type TimerEvent struct {
	At        time.Time     `json:"at"`
	TimerID   string        `json:"timerId"`
	Kind      string        `json:"kind"`
	Remaining time.Duration `json:"remaining,omitempty"`
}

// CoreSnapshot is the checkpointed composite: game state plus scheduler
// state plus campaign progress, all plain data.
type CoreSnapshot struct {
	State     *State        `json:"state"`
	Phase     Phase         `json:"phase"`
	Steps     []StepID      `json:"steps"`
	StepIdx   int           `json:"stepIdx"`
	Accused   []int         `json:"accused"`
	Scheduler sched.State   `json:"scheduler"`
	Campaign  deck.Progress `json:"campaign"`
}

// SessionSnapshot is the full persisted session document body.
type SessionSnapshot struct {
	Core        CoreSnapshot                      `json:"core"`
	ActionLog   []replay.LogEntry                 `json:"actionLog"`
	Checkpoints []replay.Checkpoint[CoreSnapshot] `json:"checkpoints"`
	TimerEvents []TimerEvent                      `json:"timerEvents"`
	Outcome     *Outcome                          `json:"outcome,omitempty"`
}

// Config wires the controller's collaborators.
type Config struct {
	Scheduler *sched.Scheduler
	Decks     *deck.Evaluator
	KV        storage.KV
	Logger    *slog.Logger
	Presenter Presenter

	// Gate, when set, is taken by timer callbacks before they touch the
	// controller. Callers that serialize access through their own lock
	// pass that lock here.
	Gate sync.Locker
}

// Controller drives one narrator session. It is confirmation-gated and
// single-threaded: callers serialize access, the controller never spawns
// concurrent transitions on its own.
type Controller struct {
	state   *State
	phase   Phase
	steps   []StepID
	stepIdx int
	accused []int
	pending *lastStand
	outcome *Outcome

	sc          *sched.Scheduler
	decks       *deck.Evaluator
	kv          storage.KV
	logger      *slog.Logger
	presenter   Presenter
	gate        sync.Locker
	checkpoints *replay.Checkpoints[CoreSnapshot]
	log         *replay.ActionLog
	undo        *replay.UndoStack[Command]
	timers      *replay.TimerSet
	timerEvents []TimerEvent
}

type lastStand struct {
	Hunter int
}

const (
	// accusationsToEliminate is the town-crier short-circuit threshold.
	accusationsToEliminate = 3

	nextNightTimer = "next-night"
)

func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		phase:       PhaseSetup,
		sc:          cfg.Scheduler,
		decks:       cfg.Decks,
		kv:          cfg.KV,
		logger:      logger,
		presenter:   cfg.Presenter,
		gate:        cfg.Gate,
		checkpoints: replay.NewCheckpoints[CoreSnapshot](replay.DefaultCheckpointCap),
		log:         replay.NewActionLog(replay.DefaultLogCap),
		undo:        replay.NewUndoStack[Command](),
		timers:      replay.NewTimerSet(),
	}
}

// AssignRoles creates the live game state and resets every history
// structure: undo stacks and timers never survive into a new game.
func (c *Controller) AssignRoles(players []string, roles []Role, jobs [][]Job) error {
	if len(players) == 0 || len(players) != len(roles) {
		return fmt.Errorf("game: players and roles must align, got %d/%d", len(players), len(roles))
	}
	c.state = NewState(players, roles, jobs)
	c.phase = PhaseSetup
	c.steps = nil
	c.stepIdx = 0
	c.accused = nil
	c.pending = nil
	c.outcome = nil
	c.undo.Clear()
	c.timers.CancelAll()
	c.log.Clear()
	c.checkpoints.Clear()
	c.timerEvents = nil
	c.sc.ClearAll(true)

	c.appendLog("setup", "Roles assigned", fmt.Sprintf("%d players", len(players)), "")
	c.present(nil, "")
	return nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// State returns a deep copy of the live game state.
func (c *Controller) State() *State {
	if c.state == nil {
		return nil
	}
	return c.state.Clone()
}

// Outcome returns the terminal outcome, if the game has ended.
func (c *Controller) Outcome() *Outcome { return c.outcome }

// CurrentStep returns the active night step, if any.
func (c *Controller) CurrentStep() (StepID, bool) {
	if c.phase != PhaseNight || c.stepIdx >= len(c.steps) {
		return "", false
	}
	return c.steps[c.stepIdx], true
}

// StartNight begins the next night: victim tracking is cleared, expired
// modifiers are swept, the event decks are evaluated for the new night,
// and a checkpoint is taken. Expiry always runs before evaluation so a
// modifier ending tonight cannot leak into the new night's events.
func (c *Controller) StartNight(ctx context.Context) error {
	if c.state == nil {
		return ErrNoGame
	}
	if c.phase == PhaseGameOver {
		return ErrGameOver
	}
	if c.phase != PhaseSetup && c.phase != PhaseDayLynch {
		return ErrPhase
	}
	if c.pending != nil {
		return ErrPhase
	}

	c.timers.Cancel(nextNightTimer)

	newNight := c.state.Night + 1
	c.state.Trackers.LastVictims = c.state.Trackers.Victims
	c.state.Trackers.Victims = nil
	c.state.Silenced = -1

	c.sc.ClearExpiredModifiers(newNight)
	outcomes := c.decks.EvaluateNight(ctx, newNight, c.state.AliveNames())
	c.state.Night = newNight

	c.steps = c.state.BuildNightSteps(newNight)
	c.stepIdx = 0

	var lines []string
	var note string
	for _, o := range outcomes {
		if o.Triggered && o.Effect != nil {
			lines = append(lines, o.Effect.Log)
			if o.Effect.NarratorNote != "" {
				note = o.Effect.NarratorNote
			}
			c.appendLog("event", o.Label, o.Effect.Message, "")
		}
	}

	c.phase = PhaseNight
	c.takeCheckpoint(fmt.Sprintf("Night %d", newNight))
	c.appendLog("phase", fmt.Sprintf("Night %d begins", newNight), "", "")

	c.skipIneligibleSteps()
	if c.stepIdx >= len(c.steps) {
		return c.finishNight(ctx)
	}

	c.present(lines, note)
	return nil
}

// ConfirmNightStep applies the narrator's resolved selection for the
// current step and advances. A missing required selection re-prompts
// without advancing or discarding anything.
func (c *Controller) ConfirmNightStep(ctx context.Context, sel Selection) (StepResult, error) {
	if c.state == nil {
		return StepResult{}, ErrNoGame
	}
	if c.phase != PhaseNight {
		return StepResult{}, ErrPhase
	}
	if c.stepIdx >= len(c.steps) {
		return StepResult{}, ErrPhase
	}

	step := c.steps[c.stepIdx]
	res, ok := c.applyStep(step, sel)
	if !ok {
		return res, nil
	}

	c.stepIdx++
	c.skipIneligibleSteps()
	if c.stepIdx >= len(c.steps) {
		if err := c.finishNight(ctx); err != nil {
			return res, err
		}
		res.NightFinished = true
		return res, nil
	}
	res.NextStep = c.steps[c.stepIdx]
	c.present(nil, StepPrompt(res.NextStep))
	return res, nil
}

// applyStep validates the selection and records a reversible command before
// the mutation is visible anywhere else.
func (c *Controller) applyStep(step StepID, sel Selection) (StepResult, bool) {
	st := c.state
	switch step {
	case StepCupid:
		if len(sel.Targets) != 2 || !st.Alive(sel.Targets[0]) || !st.Alive(sel.Targets[1]) {
			return StepResult{Step: step, NeedsSelection: true, Prompt: "Choose two living players to be lovers."}, false
		}
		c.pushCommand(Command{
			Kind: CmdSetLovers, Step: step,
			Label:   "Lovers designated",
			Detail:  playerLabel(st, sel.Targets[0]) + " + " + playerLabel(st, sel.Targets[1]),
			Players: []int{sel.Targets[0], sel.Targets[1]},
		})
	case StepGuard:
		if len(sel.Targets) != 1 || !st.Alive(sel.Targets[0]) {
			return StepResult{Step: step, NeedsSelection: true, Prompt: "Choose one living player to protect."}, false
		}
		c.pushCommand(Command{
			Kind: CmdProtect, Step: step,
			Label:   "Guard protects",
			Detail:  playerLabel(st, sel.Targets[0]),
			Players: []int{sel.Targets[0]},
			Prev:    []int{st.Trackers.GuardTarget, st.Trackers.GuardNight},
		})
	case StepSeer:
		if len(sel.Targets) != 1 || !st.Alive(sel.Targets[0]) {
			return StepResult{Step: step, NeedsSelection: true, Prompt: "Choose one living player to inspect."}, false
		}
		c.pushCommand(Command{
			Kind: CmdInspect, Step: step,
			Label:   "Seer inspects",
			Detail:  playerLabel(st, sel.Targets[0]),
			Players: []int{sel.Targets[0]},
		})
	case StepWerewolves:
		allowed := c.werewolfVictimCount()
		if len(sel.Targets) == 0 || len(sel.Targets) > allowed {
			prompt := "Choose a victim."
			if allowed > 1 {
				prompt = fmt.Sprintf("Choose up to %d victims tonight.", allowed)
			}
			return StepResult{Step: step, NeedsSelection: true, Prompt: prompt}, false
		}
		for _, t := range sel.Targets {
			if !st.Alive(t) {
				return StepResult{Step: step, NeedsSelection: true, Prompt: "Victims must be living players."}, false
			}
		}
		c.pushCommand(Command{
			Kind: CmdDesignateVictims, Step: step,
			Label:   "Werewolves strike",
			Detail:  namesOf(st, sel.Targets),
			Players: append([]int(nil), sel.Targets...),
		})
	case StepWitch:
		// Both potions are optional; an empty selection is a pass.
		// Validate everything first so a rejected selection leaves no
		// partial mutation behind.
		if len(sel.Heals) > st.Trackers.HealPotions {
			return StepResult{Step: step, NeedsSelection: true, Prompt: "No heal potion left."}, false
		}
		if len(sel.Poisons) > st.Trackers.PoisonPotions {
			return StepResult{Step: step, NeedsSelection: true, Prompt: "No poison left."}, false
		}
		for _, h := range sel.Heals {
			if !contains(st.Trackers.Victims, h) {
				return StepResult{Step: step, NeedsSelection: true, Prompt: "The heal potion can only save tonight's victim."}, false
			}
		}
		for _, p := range sel.Poisons {
			if !st.Alive(p) {
				return StepResult{Step: step, NeedsSelection: true, Prompt: "The poison needs a living target."}, false
			}
		}
		for _, h := range sel.Heals {
			c.pushCommand(Command{
				Kind: CmdHeal, Step: step,
				Label:   "Witch heals",
				Detail:  playerLabel(st, h),
				Players: []int{h},
			})
		}
		for _, p := range sel.Poisons {
			c.pushCommand(Command{
				Kind: CmdPoison, Step: step,
				Label:   "Witch poisons",
				Detail:  playerLabel(st, p),
				Players: []int{p},
			})
		}
	default:
		// Unknown step ids are skipped rather than failing the night.
		c.logger.Warn("unknown night step", "step", string(step))
	}
	return StepResult{Step: step}, true
}

// BackNightStep rewinds to the previous eligible step, undoing every
// command the abandoned step recorded. Forward history past the restored
// point is gone for good.
func (c *Controller) BackNightStep() bool {
	if c.state == nil || c.phase != PhaseNight || c.stepIdx == 0 {
		return false
	}

	if c.timers.Cancel(nextNightTimer) {
		c.recordTimerEvent(nextNightTimer, "cancelled", 0)
	}

	prev := c.stepIdx - 1
	for prev > 0 && !c.state.StepEligible(c.steps[prev]) {
		prev--
	}
	target := c.steps[prev]
	for {
		cmd, ok := c.undo.Peek()
		if !ok || cmd.Step != target {
			break
		}
		c.undo.Undo()
		c.state.apply(cmd, false)
	}
	c.stepIdx = prev
	c.present(nil, StepPrompt(target))
	return true
}

func (c *Controller) skipIneligibleSteps() {
	for c.stepIdx < len(c.steps) && !c.state.StepEligible(c.steps[c.stepIdx]) {
		c.appendLog("step", "Step skipped", string(c.steps[c.stepIdx]), string(c.steps[c.stepIdx]))
		c.stepIdx++
	}
}

// finishNight resolves designated victims against protections, completes
// day-start queued effects, then opens the accusation phase.
func (c *Controller) finishNight(ctx context.Context) error {
	st := c.state

	var killed []int
	var lines []string
	seen := make(map[int]bool)
	for _, v := range st.Trackers.Victims {
		if seen[v] || !st.Alive(v) {
			continue
		}
		seen[v] = true

		// Guard protection only counts for the exact night it was set.
		if st.Trackers.GuardTarget == v && st.Trackers.GuardNight == st.Night {
			lines = append(lines, playerLabel(st, v)+" was attacked but the guard stood watch.")
			continue
		}
		// The shield absorbs the first qualifying death of the game.
		if !st.Trackers.ShieldUsed && st.hasJob(v, JobShield) {
			st.Trackers.ShieldUsed = true
			lines = append(lines, playerLabel(st, v)+"'s shield shattered, but held.")
			continue
		}
		killed = append(killed, c.eliminate(v)...)
	}

	for _, k := range killed {
		lines = append(lines, playerLabel(st, k)+" died in the night.")
	}

	// Silence announced by a full-moon modifier becomes effective at dawn.
	for _, m := range c.sc.State().Modifiers {
		if m.OriginCardID != deck.CardFullMoon {
			continue
		}
		if name, ok := m.Meta["silenced"].(string); ok {
			for i, p := range st.Players {
				if p == name && st.Alive(i) {
					st.Silenced = i
					break
				}
			}
		}
	}

	// Day-start queued effects: a phoenix revives tonight's dead.
	if len(killed) > 0 && c.sc.HasQueued(deck.CardPhoenix) {
		if entry := c.sc.CompleteQueued(deck.CardPhoenix, map[string]any{"revived": len(killed)}); entry != nil {
			st.setDead(killed, false)
			lines = append(lines, "The phoenix feather burns: the night's dead draw breath again.")
			c.appendLog("event", "Phoenix revival", namesOf(st, killed), "")
			killed = nil
		}
	}

	st.Day++
	c.phase = PhaseDayAccusation
	c.accused = nil
	c.takeCheckpoint(fmt.Sprintf("Day %d", st.Day))
	c.appendLog("phase", fmt.Sprintf("Day %d begins", st.Day), "", "")

	if out := st.CheckGameOver(); out != nil {
		c.finish(out)
		return nil
	}
	c.armLastStand(killed)
	c.present(lines, "")
	return nil
}

// Accuse records a public accusation. With a living town crier the tally
// can short-circuit into an immediate elimination, looping back into
// accusation cleanup instead of a vote.
func (c *Controller) Accuse(ctx context.Context, accused int) (bool, error) {
	if c.state == nil {
		return false, ErrNoGame
	}
	if c.phase != PhaseDayAccusation {
		return false, ErrPhase
	}
	if !c.state.Alive(accused) {
		// Referencing a dead player is ignored, not an error.
		return false, nil
	}

	first := !contains(c.accused, accused)
	// Prev marks a first accusation of the day so undo knows whether to
	// take the player back off the accused list.
	c.pushCommand(Command{
		Kind:    CmdAccuse,
		Label:   "Accusation",
		Detail:  playerLabel(c.state, accused),
		Players: []int{accused},
		Prev:    []int{boolInt(first)},
	})
	if first {
		c.accused = append(c.accused, accused)
	}

	crierPresent := len(c.state.LivingWith(RoleCrier)) > 0
	if crierPresent && c.state.Trackers.Accusations[accused] >= accusationsToEliminate {
		killed := c.eliminate(accused)
		c.appendLog("day", "Condemned by acclaim", playerLabel(c.state, accused), "")
		c.accused = removeInt(c.accused, accused)
		if out := c.state.CheckGameOver(); out != nil {
			c.finish(out)
			return true, nil
		}
		c.armLastStand(killed)
		c.present([]string{playerLabel(c.state, accused) + " was condemned by public outcry."}, "")
		return true, nil
	}

	c.present(nil, "")
	return false, nil
}

// BeginVote closes the accusation phase and opens the vote.
func (c *Controller) BeginVote() error {
	if c.state == nil {
		return ErrNoGame
	}
	if c.phase != PhaseDayAccusation || c.pending != nil {
		return ErrPhase
	}
	c.phase = PhaseDayVote
	c.present(nil, "The village votes.")
	return nil
}

// Vote tallies votes (voter index to target index). The mayor's vote and a
// spotlighted player's vote count double. Ties auto-resolve only onto a
// living scapegoat; otherwise the tie is surfaced and nothing is decided.
func (c *Controller) Vote(ctx context.Context, votes map[int]int) (VoteResult, error) {
	if c.state == nil {
		return VoteResult{}, ErrNoGame
	}
	if c.phase != PhaseDayVote {
		return VoteResult{}, ErrPhase
	}
	st := c.state

	tally := make(map[int]int)
	for voter, target := range votes {
		if !st.Alive(voter) || !st.Alive(target) || voter == st.Silenced {
			continue
		}
		weight := 1
		if voter == st.Mayor {
			weight = 2
		}
		if c.spotlighted(voter) {
			weight = 2
		}
		tally[target] += weight
	}

	best := 0
	var candidates []int
	for target, n := range tally {
		switch {
		case n > best:
			best, candidates = n, []int{target}
		case n == best && n > 0:
			candidates = append(candidates, target)
		}
	}

	if best == 0 {
		// Nobody voted: the day ends peacefully.
		return VoteResult{Eliminated: -1}, c.SkipLynch()
	}

	if len(candidates) > 1 {
		if goats := st.LivingWith(RoleScapegoat); len(goats) > 0 {
			c.phase = PhaseDayLynch
			killed := c.eliminate(goats[0])
			c.appendLog("day", "Scapegoat blamed", playerLabel(st, goats[0]), "")
			res := VoteResult{Eliminated: goats[0], Scapegoat: true}
			if out := st.CheckGameOver(); out != nil {
				c.finish(out)
				return res, nil
			}
			c.armLastStand(killed)
			c.present([]string{playerLabel(st, goats[0]) + " pays for the village's indecision."}, "")
			return res, nil
		}
		// No automatic resolution: the narrator decides or skips.
		c.present(nil, "The vote is tied.")
		return VoteResult{Eliminated: -1, Tie: true, Candidates: candidates}, nil
	}

	target := candidates[0]
	c.phase = PhaseDayLynch
	return c.lynch(target)
}

// ResolveLynch applies a narrator-chosen elimination, normally after a tie
// the village could not break.
func (c *Controller) ResolveLynch(ctx context.Context, target int) (VoteResult, error) {
	if c.state == nil {
		return VoteResult{}, ErrNoGame
	}
	if c.phase != PhaseDayVote && c.phase != PhaseDayLynch {
		return VoteResult{}, ErrPhase
	}
	if !c.state.Alive(target) {
		return VoteResult{Eliminated: -1}, nil
	}
	c.phase = PhaseDayLynch
	return c.lynch(target)
}

func (c *Controller) lynch(target int) (VoteResult, error) {
	st := c.state
	killed := c.eliminate(target)
	c.appendLog("day", "Lynched", playerLabel(st, target), "")
	res := VoteResult{Eliminated: target}
	if out := st.CheckGameOver(); out != nil {
		c.finish(out)
		return res, nil
	}
	c.armLastStand(killed)
	c.present([]string{playerLabel(st, target) + " was lynched by the village."}, "")
	return res, nil
}

// SkipLynch ends the day without an elimination and counts a peace day.
func (c *Controller) SkipLynch() error {
	if c.state == nil {
		return ErrNoGame
	}
	if c.phase != PhaseDayVote && c.phase != PhaseDayAccusation {
		return ErrPhase
	}
	c.state.PeaceDays++
	c.phase = PhaseDayLynch
	c.appendLog("day", "No lynch", fmt.Sprintf("peace day %d", c.state.PeaceDays), "")
	if out := c.state.CheckGameOver(); out != nil {
		c.finish(out)
		return nil
	}
	c.present([]string{"The day ends without bloodshed."}, "")
	return nil
}

// PendingLastStand reports whether a dead hunter still owes a shot.
func (c *Controller) PendingLastStand() (int, bool) {
	if c.pending == nil {
		return -1, false
	}
	return c.pending.Hunter, true
}

// ConfirmLastStand resolves the dead hunter's final shot. Transitions stay
// blocked until the hunter's selection arrives.
func (c *Controller) ConfirmLastStand(ctx context.Context, target int) error {
	if c.pending == nil {
		return ErrPhase
	}
	hunter := c.pending.Hunter
	c.pending = nil
	if !c.state.Alive(target) {
		c.present(nil, "The hunter's shot went wide.")
		return nil
	}
	killed := c.eliminate(target)
	c.appendLog("day", "Hunter's last stand", playerLabel(c.state, hunter)+" shoots "+playerLabel(c.state, target), "")
	if out := c.state.CheckGameOver(); out != nil {
		c.finish(out)
		return nil
	}
	c.armLastStand(killed)
	c.present([]string{playerLabel(c.state, target) + " falls to the hunter's final shot."}, "")
	return nil
}

// SetProwlerTarget fixes the bounty target, normally during setup.
func (c *Controller) SetProwlerTarget(target int) error {
	if c.state == nil {
		return ErrNoGame
	}
	if target < 0 || target >= len(c.state.Players) {
		return fmt.Errorf("game: no player at index %d", target)
	}
	c.state.Trackers.ProwlerTarget = target
	return nil
}

// eliminate marks a player dead, cascades through lover pairs, resets the
// peace counter and pushes one undoable kill command covering the chain.
func (c *Controller) eliminate(target int) []int {
	st := c.state
	if !st.Alive(target) {
		return nil
	}

	var cascade []int
	st.Dead[target] = true
	queue := []int{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if partner := st.LoverOf(cur); partner >= 0 && st.Alive(partner) {
			st.Dead[partner] = true
			cascade = append(cascade, partner)
			queue = append(queue, partner)
		}
	}

	prevPeace := st.PeaceDays
	st.PeaceDays = 0
	c.undo.Push(Command{
		Kind:    CmdKill,
		Label:   "Death",
		Detail:  playerLabel(st, target),
		Players: []int{target},
		Cascade: cascade,
		Prev:    []int{prevPeace},
	})
	return append([]int{target}, cascade...)
}

func (c *Controller) armLastStand(killed []int) {
	for _, k := range killed {
		if c.state.Roles[k] == RoleHunter {
			c.pending = &lastStand{Hunter: k}
			return
		}
	}
}

// Undo reverses the newest undoable action via the command interpreter.
func (c *Controller) Undo() (Command, bool) {
	if c.state == nil {
		return Command{}, false
	}
	cmd, ok := c.undo.Undo()
	if !ok {
		return Command{}, false
	}
	c.state.apply(cmd, false)
	if cmd.Kind == CmdAccuse && prevOr(cmd.Prev, 0, 0) == 1 {
		c.accused = removeInt(c.accused, cmd.Players[0])
	}
	c.appendLog("admin", "Undo", cmd.Label, "")
	c.present(nil, "")
	return cmd, true
}

// Redo re-applies the newest undone action.
func (c *Controller) Redo() (Command, bool) {
	if c.state == nil {
		return Command{}, false
	}
	cmd, ok := c.undo.Redo()
	if !ok {
		return Command{}, false
	}
	c.state.apply(cmd, true)
	if cmd.Kind == CmdAccuse && prevOr(cmd.Prev, 0, 0) == 1 && !contains(c.accused, cmd.Players[0]) {
		c.accused = append(c.accused, cmd.Players[0])
	}
	c.appendLog("admin", "Redo", cmd.Label, "")
	c.present(nil, "")
	return cmd, true
}

// AdminEdit applies a narrator hand-edit as an undoable command.
func (c *Controller) AdminEdit(cmd Command) error {
	if c.state == nil {
		return ErrNoGame
	}
	switch cmd.Kind {
	case CmdKill, CmdRevive, CmdSetMayor, CmdSilence, CmdSetLovers:
	default:
		return fmt.Errorf("game: %q is not an admin-editable command", cmd.Kind)
	}
	switch cmd.Kind {
	case CmdKill:
		cmd.Prev = []int{c.state.PeaceDays}
	case CmdSetMayor:
		cmd.Prev = []int{c.state.Mayor}
	case CmdSilence:
		cmd.Prev = []int{c.state.Silenced}
	}
	c.pushCommand(cmd)
	c.present(nil, "")
	return nil
}

// pushCommand applies a command forward and records it for undo. The push
// happens before the mutation so rollback always restores a state that
// predates the action being undone.
func (c *Controller) pushCommand(cmd Command) {
	c.undo.Push(cmd)
	c.state.apply(cmd, true)
	c.appendLog("action", cmd.Label, cmd.Detail, string(cmd.Step))
}

func (c *Controller) werewolfVictimCount() int {
	n := 1
	for _, m := range c.sc.State().Modifiers {
		if extra, ok := m.Meta["extraVictims"]; ok {
			switch v := extra.(type) {
			case int:
				n += v
			case float64:
				n += int(v)
			}
		}
	}
	return n
}

func (c *Controller) spotlighted(voter int) bool {
	for _, m := range c.sc.State().Modifiers {
		if m.OriginCardID != deck.CardSpotlight {
			continue
		}
		if name, ok := m.Meta["player"].(string); ok && name == c.state.Players[voter] {
			return true
		}
	}
	return false
}

func (c *Controller) finish(out *Outcome) {
	c.outcome = out
	c.phase = PhaseGameOver
	c.timers.CancelAll()
	c.appendLog("phase", "Game over", out.Message, "")
	c.present([]string{out.Message}, "")
}

// FinishGame tears the session down back to setup; the live state is gone.
func (c *Controller) FinishGame() {
	c.state = nil
	c.phase = PhaseSetup
	c.steps = nil
	c.stepIdx = 0
	c.accused = nil
	c.pending = nil
	c.outcome = nil
	c.undo.Clear()
	c.timers.CancelAll()
	c.sc.ClearAll(false)
}

func (c *Controller) appendLog(typ, label, detail string, step string) {
	c.log.Append(replay.LogEntry{
		Type:   typ,
		Label:  label,
		Detail: detail,
		Phase:  string(c.phase),
		Step:   step,
	})
}

func (c *Controller) present(lines []string, note string) {
	if c.presenter == nil || c.state == nil {
		return
	}
	counts := make(map[Role]int)
	for i, r := range c.state.Roles {
		if !c.state.Dead[i] {
			counts[r]++
		}
	}
	u := Update{
		Phase:        c.phase,
		Log:          lines,
		NarratorNote: note,
		Alive:        c.state.AliveNames(),
		RoleCounts:   counts,
		Modifiers:    c.sc.State().Modifiers,
		Queued:       c.sc.State().Queued,
		Outcome:      c.outcome,
	}
	if step, ok := c.CurrentStep(); ok {
		u.Step = step
		if u.NarratorNote == "" {
			u.NarratorNote = StepPrompt(step)
		}
		u.Prompt = StepPrompt(step)
	}
	c.presenter.Present(u)
}

func namesOf(st *State, idxs []int) string {
	out := ""
	for i, idx := range idxs {
		if i > 0 {
			out += ", "
		}
		out += playerLabel(st, idx)
	}
	return out
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func removeInt(xs []int, x int) []int {
	for i, v := range xs {
		if v == x {
			return append(xs[:i], xs[i+1:]...)
		}
	}
	return xs
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
