// Package deck implements the probabilistic event layer consulted at night
// start: weighted card decks, per-card trigger odds with pity timers, and
// night-indexed campaign scripts that force specific cards.
package deck

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/thiercelieux/narrator/internal/sched"
	"github.com/thiercelieux/narrator/internal/storage"
)

// Context carries everything a card's trigger and effect may touch.
type Context struct {
	Ctx    context.Context
	Night  int
	Alive  []string
	Rand   *rand.Rand
	KV     storage.KV
	Sched  *sched.Scheduler
	Logger *slog.Logger
}

// TriggerResult reports one evaluation attempt. Chance and Roll are kept
// for narrator transparency in the history log.
type TriggerResult struct {
	Triggered bool
	Forced    bool
	Chance    float64
	Roll      float64
	NextPity  int
	Meta      map[string]any
}

// EffectResult is what a triggered card hands back to collaborators.
type EffectResult struct {
	Log          string
	Message      string
	NarratorNote string
}

// Card is one event definition. Trigger decides whether the event fires
// tonight; Effect applies it through the scheduler.
type Card struct {
	ID      string
	Label   string
	Deck    string
	Trigger func(ctx *Context) TriggerResult
	Effect  func(ctx *Context, meta map[string]any) EffectResult

	order int
}

// DeckConfig gates a whole deck: disabled decks never surface cards and the
// weight in [0,3] acts as an outer probability (below 1) or a retry count
// (1 and above).
type DeckConfig struct {
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"`
}

// Skip reasons recorded to history.
const (
	SkipWeightGate    = "weight-gate"
	SkipNotTriggered  = "not-triggered"
	SkipAlreadyForced = "already-forced"
)

// Outcome is the per-card result of one night's evaluation.
type Outcome struct {
	CardID    string
	Label     string
	Triggered bool
	Forced    bool
	Skipped   string
	Effect    *EffectResult
}

// Evaluator owns the card list, deck weights and campaign progress for one
// session.
type Evaluator struct {
	cards    []Card
	decks    map[string]DeckConfig
	campaign []CampaignEntry
	executed map[string]struct{}
	rng      *rand.Rand
	kv       storage.KV
	sched    *sched.Scheduler
	logger   *slog.Logger
}

func NewEvaluator(cards []Card, kv storage.KV, sc *sched.Scheduler, rng *rand.Rand, logger *slog.Logger) *Evaluator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Evaluator{
		decks:    make(map[string]DeckConfig),
		executed: make(map[string]struct{}),
		rng:      rng,
		kv:       kv,
		sched:    sc,
		logger:   logger,
	}
	for i, c := range cards {
		c.order = i
		e.cards = append(e.cards, c)
		if _, ok := e.decks[c.Deck]; !ok {
			e.decks[c.Deck] = DeckConfig{Enabled: true, Weight: 1}
		}
	}
	return e
}

// SetDeck overrides one deck's gate. Weight is clamped to [0,3].
func (e *Evaluator) SetDeck(name string, cfg DeckConfig) {
	cfg.Weight = math.Max(0, math.Min(3, cfg.Weight))
	e.decks[name] = cfg
}

func (e *Evaluator) Decks() map[string]DeckConfig {
	out := make(map[string]DeckConfig, len(e.decks))
	for k, v := range e.decks {
		out[k] = v
	}
	return out
}

// SetCampaign replaces the scripted entries.
func (e *Evaluator) SetCampaign(entries []CampaignEntry) {
	e.campaign = append([]CampaignEntry(nil), entries...)
}

// EvaluateNight runs the full night evaluation: campaign entries for this
// exact night first (unconditional, never repeated), then the weighted
// probabilistic pass. Caller must have cleared expired modifiers already.
func (e *Evaluator) EvaluateNight(ctx context.Context, night int, alive []string) []Outcome {
	cctx := &Context{
		Ctx:    ctx,
		Night:  night,
		Alive:  alive,
		Rand:   e.rng,
		KV:     e.kv,
		Sched:  e.sched,
		Logger: e.logger,
	}

	var outcomes []Outcome
	forced := make(map[string]struct{})

	for _, entry := range e.campaign {
		if entry.Night != night {
			continue
		}
		key := entry.key()
		if _, done := e.executed[key]; done {
			continue
		}
		card, ok := e.cardByID(entry.CardID)
		if !ok {
			e.logger.Warn("campaign references unknown card", "card", entry.CardID, "night", night)
			e.executed[key] = struct{}{}
			continue
		}
		e.executed[key] = struct{}{}
		forced[card.ID] = struct{}{}
		outcomes = append(outcomes, e.fire(cctx, card, map[string]any{"scripted": true}, true))
	}

	for _, card := range e.candidates() {
		if _, wasForced := forced[card.ID]; wasForced {
			outcomes = append(outcomes, Outcome{CardID: card.ID, Label: card.Label, Skipped: SkipAlreadyForced})
			continue
		}
		outcomes = append(outcomes, e.evaluateCard(cctx, card))
	}
	return outcomes
}

// candidates returns cards from enabled decks with weight > 0, heaviest
// first, ties kept in definition order.
func (e *Evaluator) candidates() []Card {
	var out []Card
	for _, c := range e.cards {
		cfg, ok := e.decks[c.Deck]
		if !ok || !cfg.Enabled || cfg.Weight <= 0 {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := e.decks[out[i].Deck].Weight, e.decks[out[j].Deck].Weight
		if wi != wj {
			return wi > wj
		}
		return out[i].order < out[j].order
	})
	return out
}

func (e *Evaluator) evaluateCard(cctx *Context, card Card) Outcome {
	weight := e.decks[card.Deck].Weight

	// Fractional decks are an outer gate: one roll decides whether the
	// card is even attempted tonight, without calling its trigger.
	if weight < 1 {
		if roll := e.rng.Float64(); roll > weight {
			e.recordSkip(cctx, card, SkipWeightGate, map[string]any{
				"roll":   roll,
				"weight": weight,
			})
			return Outcome{CardID: card.ID, Label: card.Label, Skipped: SkipWeightGate}
		}
	}

	attempts := 1
	if weight >= 1 {
		attempts = int(math.Round(weight))
	}

	var last TriggerResult
	for i := 0; i < attempts; i++ {
		last = card.Trigger(cctx)
		if last.Triggered {
			out := e.fire(cctx, card, last.Meta, last.Forced)
			return out
		}
	}

	detail := map[string]any{
		"chance":   last.Chance,
		"roll":     last.Roll,
		"attempts": attempts,
	}
	if last.NextPity > 0 {
		detail["pity"] = last.NextPity
	}
	e.recordSkip(cctx, card, SkipNotTriggered, detail)
	return Outcome{CardID: card.ID, Label: card.Label, Skipped: SkipNotTriggered}
}

func (e *Evaluator) fire(cctx *Context, card Card, meta map[string]any, forced bool) Outcome {
	var effect EffectResult
	if card.Effect != nil {
		effect = card.Effect(cctx, meta)
	}
	e.sched.RecordHistory(sched.HistoryEntry{
		ID:        uuid.NewString(),
		CardID:    card.ID,
		Label:     card.Label,
		Triggered: true,
		Detail:    meta,
		Night:     cctx.Night,
	})
	return Outcome{CardID: card.ID, Label: card.Label, Triggered: true, Forced: forced, Effect: &effect}
}

func (e *Evaluator) recordSkip(cctx *Context, card Card, reason string, detail map[string]any) {
	if detail == nil {
		detail = map[string]any{}
	}
	detail["reason"] = reason
	e.sched.RecordHistory(sched.HistoryEntry{
		CardID:    card.ID,
		Label:     card.Label,
		Triggered: false,
		Detail:    detail,
		Night:     cctx.Night,
	})
}

func (e *Evaluator) cardByID(id string) (Card, bool) {
	for _, c := range e.cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}
