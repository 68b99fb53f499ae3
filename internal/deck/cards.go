package deck

import (
	"fmt"

	"github.com/thiercelieux/narrator/internal/sched"
)

// Built-in card ids.
const (
	CardBloodMoon = "blood-moon"
	CardPhoenix   = "phoenix"
	CardFullMoon  = "full-moon"
	CardSpotlight = "spotlight"
)

// Deck names.
const (
	DeckLunar   = "lunar"
	DeckMystic  = "mystic"
	DeckVillage = "village"
)

var bloodMoonPity = PityTimer{
	Key:     "pity:" + CardBloodMoon,
	Base:    0.10,
	Step:    0.10,
	ForceAt: 3,
}

// DefaultCards is the built-in catalog. Definition order is the tiebreak
// for equally weighted decks, so keep it stable.
func DefaultCards() []Card {
	return []Card{
		{
			ID:    CardBloodMoon,
			Label: "Blood Moon",
			Deck:  DeckLunar,
			Trigger: func(ctx *Context) TriggerResult {
				// A manually activated blood moon forces the trigger
				// and resets the pity counter on the same call.
				active := ctx.Sched.HasModifier(CardBloodMoon)
				return bloodMoonPity.Attempt(ctx, active)
			},
			Effect: func(ctx *Context, meta map[string]any) EffectResult {
				night := ctx.Night
				ctx.Sched.AddModifier(sched.Modifier{
					ID:                CardBloodMoon,
					Label:             "Blood Moon",
					OriginCardID:      CardBloodMoon,
					ExpiresAfterNight: &night,
					Meta:              map[string]any{"extraVictims": 1},
				})
				return EffectResult{
					Log:          "Blood moon rises",
					Message:      "The moon turns red. The werewolves may choose two victims tonight.",
					NarratorNote: "Ask the werewolves for a second victim before closing their step.",
				}
			},
		},
		{
			ID:    CardPhoenix,
			Label: "Phoenix Feather",
			Deck:  DeckMystic,
			Trigger: func(ctx *Context) TriggerResult {
				// Single-flight guard: the scheduler does not dedupe queued
				// effects, so the card refuses to enqueue a second one.
				if ctx.Sched.HasQueued(CardPhoenix) {
					return TriggerResult{Meta: map[string]any{"reason": "already queued"}}
				}
				roll := ctx.Rand.Float64()
				return TriggerResult{
					Triggered: roll < 0.15,
					Chance:    0.15,
					Roll:      roll,
					Meta:      map[string]any{"chance": 0.15, "roll": roll},
				}
			},
			Effect: func(ctx *Context, meta map[string]any) EffectResult {
				ctx.Sched.Enqueue(sched.QueuedEffect{
					CardID: CardPhoenix,
					Label:  "Phoenix Feather",
					Night:  ctx.Night,
					Meta:   map[string]any{"night": ctx.Night},
				})
				return EffectResult{
					Log:          "Phoenix feather drifts down",
					Message:      "A phoenix feather falls. Tonight's victims will rise again at dawn.",
					NarratorNote: "Resolved automatically at the next day start.",
				}
			},
		},
		{
			ID:    CardFullMoon,
			Label: "Full Moon",
			Deck:  DeckLunar,
			Trigger: func(ctx *Context) TriggerResult {
				roll := ctx.Rand.Float64()
				return TriggerResult{
					Triggered: roll < 0.20,
					Chance:    0.20,
					Roll:      roll,
					Meta:      map[string]any{"chance": 0.20, "roll": roll},
				}
			},
			Effect: func(ctx *Context, meta map[string]any) EffectResult {
				night := ctx.Night
				target := ""
				if len(ctx.Alive) > 0 {
					target = ctx.Alive[ctx.Rand.Intn(len(ctx.Alive))]
				}
				ctx.Sched.AddModifier(sched.Modifier{
					ID:                CardFullMoon,
					Label:             "Full Moon",
					OriginCardID:      CardFullMoon,
					ExpiresAfterNight: &night,
					Meta:              map[string]any{"silenced": target},
				})
				return EffectResult{
					Log:          "Full moon silence",
					Message:      fmt.Sprintf("The full moon bewitches %s, who may not speak tomorrow.", target),
					NarratorNote: fmt.Sprintf("%s is silenced for the coming day.", target),
				}
			},
		},
		{
			ID:    CardSpotlight,
			Label: "Village Spotlight",
			Deck:  DeckVillage,
			Trigger: func(ctx *Context) TriggerResult {
				roll := ctx.Rand.Float64()
				return TriggerResult{
					Triggered: roll < 0.25,
					Chance:    0.25,
					Roll:      roll,
					Meta:      map[string]any{"chance": 0.25, "roll": roll},
				}
			},
			Effect: func(ctx *Context, meta map[string]any) EffectResult {
				night := ctx.Night
				target := ""
				if len(ctx.Alive) > 0 {
					target = ctx.Alive[ctx.Rand.Intn(len(ctx.Alive))]
				}
				ctx.Sched.AddModifier(sched.Modifier{
					ID:                CardSpotlight,
					Label:             "Village Spotlight",
					OriginCardID:      CardSpotlight,
					ExpiresAfterNight: &night,
					Meta:              map[string]any{"player": target},
				})
				return EffectResult{
					Log:          "Spotlight on " + target,
					Message:      fmt.Sprintf("All eyes turn to %s, whose vote counts double today.", target),
					NarratorNote: fmt.Sprintf("Double %s's vote in today's tally.", target),
				}
			},
		},
	}
}
