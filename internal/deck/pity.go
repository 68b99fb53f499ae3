package deck

import (
	"errors"
	"strconv"

	"github.com/thiercelieux/narrator/internal/storage"
)

// PityTimer is a persisted failure counter: each miss raises the chance by
// Step, and once the counter reaches ForceAt the event fires regardless of
// the roll. Any trigger, forced or rolled, resets the counter to zero.
type PityTimer struct {
	Key     string
	Base    float64
	Step    float64
	ForceAt int
}

// Attempt rolls once against the pity-adjusted chance. active marks a state
// (e.g. modifier already applied manually) that forces an immediate trigger
// and reset. Storage failures degrade to a zero counter and are not fatal.
func (p PityTimer) Attempt(ctx *Context, active bool) TriggerResult {
	count := p.load(ctx)
	chance := p.Base + p.Step*float64(count)
	roll := ctx.Rand.Float64()

	forced := active || count >= p.ForceAt
	triggered := forced || roll < chance

	next := count + 1
	if triggered {
		next = 0
	}
	p.store(ctx, next)

	return TriggerResult{
		Triggered: triggered,
		Forced:    forced,
		Chance:    chance,
		Roll:      roll,
		NextPity:  next,
		Meta: map[string]any{
			"chance": chance,
			"roll":   roll,
			"pity":   count,
			"forced": forced,
		},
	}
}

func (p PityTimer) load(ctx *Context) int {
	if ctx.KV == nil {
		return 0
	}
	raw, err := ctx.KV.Get(ctx.Ctx, p.Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			ctx.Logger.Debug("pity counter read failed", "key", p.Key, "error", err)
		}
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (p PityTimer) store(ctx *Context, n int) {
	if ctx.KV == nil {
		return
	}
	if err := ctx.KV.Set(ctx.Ctx, p.Key, strconv.Itoa(n)); err != nil {
		ctx.Logger.Debug("pity counter write failed", "key", p.Key, "error", err)
	}
}
