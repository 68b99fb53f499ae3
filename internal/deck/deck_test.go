package deck

import (
	"context"
	"log/slog"
	"math/rand"
	"strconv"
	"testing"

	"github.com/thiercelieux/narrator/internal/sched"
	"github.com/thiercelieux/narrator/internal/storage"
)

func testContext(t *testing.T, seed int64) (*Context, *sched.Scheduler, storage.KV) {
	t.Helper()
	sc := sched.New(nil)
	kv := storage.NewMemKV()
	return &Context{
		Ctx:    context.Background(),
		Night:  1,
		Alive:  []string{"Ana", "Bruno", "Clara"},
		Rand:   rand.New(rand.NewSource(seed)),
		KV:     kv,
		Sched:  sc,
		Logger: slog.Default(),
	}, sc, kv
}

func TestPityConvergence(t *testing.T) {
	ctx, _, kv := testContext(t, 1)
	pity := PityTimer{Key: "pity:test", Base: 0, Step: 0, ForceAt: 3}

	// Base and step are zero, so only the forced threshold can trigger.
	for want := 1; want <= 3; want++ {
		res := pity.Attempt(ctx, false)
		if res.Triggered {
			t.Fatalf("attempt %d triggered early", want)
		}
		if res.NextPity != want {
			t.Fatalf("attempt %d: nextPity = %d, want %d", want, res.NextPity, want)
		}
	}

	// Counter is now 3, meeting ForceAt: must trigger and reset.
	res := pity.Attempt(ctx, false)
	if !res.Triggered || !res.Forced {
		t.Fatalf("threshold attempt: %+v, want forced trigger", res)
	}
	if res.NextPity != 0 {
		t.Fatalf("nextPity = %d, want 0 after forced trigger", res.NextPity)
	}
	if raw, err := kv.Get(ctx.Ctx, "pity:test"); err != nil || raw != "0" {
		t.Fatalf("persisted counter = %q, %v; want 0", raw, err)
	}
}

func TestPityForcedResetWhenActive(t *testing.T) {
	ctx, _, kv := testContext(t, 1)
	kv.Set(ctx.Ctx, "pity:test", "3")

	pity := PityTimer{Key: "pity:test", Base: 0.10, Step: 0.10, ForceAt: 3}
	res := pity.Attempt(ctx, true)
	if !res.Triggered || !res.Forced || res.NextPity != 0 {
		t.Fatalf("active attempt: %+v, want triggered=true nextPity=0 regardless of roll", res)
	}
}

func TestBloodMoonForcedAtPityThreshold(t *testing.T) {
	ctx, _, kv := testContext(t, 42)
	kv.Set(ctx.Ctx, "pity:"+CardBloodMoon, "3")

	var card Card
	for _, c := range DefaultCards() {
		if c.ID == CardBloodMoon {
			card = c
		}
	}

	res := card.Trigger(ctx)
	if !res.Triggered || res.NextPity != 0 {
		t.Fatalf("blood moon at pity 3: %+v, want forced trigger with reset", res)
	}
}

func TestZeroWeightDeckNeverCandidates(t *testing.T) {
	_, sc, kv := testContext(t, 7)

	called := false
	cards := []Card{{
		ID:   "gated",
		Deck: "quiet",
		Trigger: func(*Context) TriggerResult {
			called = true
			return TriggerResult{Triggered: true}
		},
	}}
	e := NewEvaluator(cards, kv, sc, rand.New(rand.NewSource(7)), slog.Default())
	e.SetDeck("quiet", DeckConfig{Enabled: true, Weight: 0})

	outcomes := e.EvaluateNight(context.Background(), 1, nil)
	if len(outcomes) != 0 {
		t.Fatalf("outcomes = %v, zero-weight deck must not surface cards", outcomes)
	}
	if called {
		t.Error("trigger was called for a zero-weight deck")
	}
}

func TestWeightAboveOneRetriesTrigger(t *testing.T) {
	_, sc, kv := testContext(t, 7)

	attempts := 0
	cards := []Card{{
		ID:   "stubborn",
		Deck: "heavy",
		Trigger: func(*Context) TriggerResult {
			attempts++
			return TriggerResult{}
		},
	}}
	e := NewEvaluator(cards, kv, sc, rand.New(rand.NewSource(7)), slog.Default())
	e.SetDeck("heavy", DeckConfig{Enabled: true, Weight: 2})

	outcomes := e.EvaluateNight(context.Background(), 1, nil)
	if attempts != 2 {
		t.Fatalf("attempts = %d, weight 2 means two tries", attempts)
	}
	if len(outcomes) != 1 || outcomes[0].Skipped != SkipNotTriggered {
		t.Fatalf("outcomes = %+v, want one not-triggered record", outcomes)
	}

	// Untriggered evaluations are still visible in the history log.
	hist := sc.State().History
	if len(hist) != 1 || hist[0].Triggered {
		t.Fatalf("history = %+v, want one untriggered entry", hist)
	}
}

func TestCampaignEntriesRunOnceAndForce(t *testing.T) {
	_, sc, kv := testContext(t, 3)

	fired := 0
	cards := []Card{{
		ID:   "scripted",
		Deck: "story",
		Trigger: func(*Context) TriggerResult {
			return TriggerResult{} // never triggers on its own
		},
		Effect: func(*Context, map[string]any) EffectResult {
			fired++
			return EffectResult{Log: "scripted"}
		},
	}}
	e := NewEvaluator(cards, kv, sc, rand.New(rand.NewSource(3)), slog.Default())
	e.SetCampaign([]CampaignEntry{{Night: 2, CardID: "scripted"}})

	outcomes := e.EvaluateNight(context.Background(), 2, nil)
	if fired != 1 {
		t.Fatalf("effect fired %d times, want 1", fired)
	}
	// The probabilistic pass must skip the forced card, not retry it.
	var sawForcedSkip bool
	for _, o := range outcomes {
		if o.Skipped == SkipAlreadyForced {
			sawForcedSkip = true
		}
	}
	if !sawForcedSkip {
		t.Errorf("outcomes = %+v, want an already-forced skip", outcomes)
	}

	// Re-running night 2 (e.g. after a rollback replay) must not repeat.
	e.EvaluateNight(context.Background(), 2, nil)
	if fired != 1 {
		t.Fatalf("campaign entry executed twice")
	}
}

func TestCampaignProgressRoundTrip(t *testing.T) {
	_, sc, kv := testContext(t, 3)
	e := NewEvaluator(DefaultCards(), kv, sc, rand.New(rand.NewSource(3)), slog.Default())
	e.SetCampaign([]CampaignEntry{{Night: 1, CardID: CardFullMoon}})
	e.SetDeck(DeckMystic, DeckConfig{Enabled: false, Weight: 1.5})
	e.EvaluateNight(context.Background(), 1, []string{"Ana"})

	snap := e.Snapshot()

	sc2 := sched.New(nil)
	e2 := NewEvaluator(DefaultCards(), kv, sc2, rand.New(rand.NewSource(9)), slog.Default())
	e2.Restore(snap)

	if len(e2.Snapshot().Executed) != len(snap.Executed) {
		t.Fatal("executed set lost in round trip")
	}
	if cfg := e2.Decks()[DeckMystic]; cfg.Enabled || cfg.Weight != 1.5 {
		t.Fatalf("deck config lost in round trip: %+v", cfg)
	}
}

func TestPhoenixSingleFlight(t *testing.T) {
	ctx, sc, _ := testContext(t, 11)

	var phoenix Card
	for _, c := range DefaultCards() {
		if c.ID == CardPhoenix {
			phoenix = c
		}
	}

	// First enqueue through the effect.
	phoenix.Effect(ctx, nil)
	if !sc.HasQueued(CardPhoenix) {
		t.Fatal("phoenix effect did not enqueue")
	}

	// With an entry queued the trigger must refuse, whatever the roll.
	for i := 0; i < 20; i++ {
		if res := phoenix.Trigger(ctx); res.Triggered {
			t.Fatal("phoenix triggered while an entry was already queued")
		}
	}
	if n := len(sc.State().Queued); n != 1 {
		t.Fatalf("queued entries = %d, want 1", n)
	}
}

func TestPityCounterSurvivesBadValue(t *testing.T) {
	ctx, _, kv := testContext(t, 5)
	kv.Set(ctx.Ctx, "pity:test", "garbage")

	pity := PityTimer{Key: "pity:test", Base: 0, Step: 0, ForceAt: 3}
	res := pity.Attempt(ctx, false)
	if res.Triggered {
		t.Fatal("corrupt counter must degrade to zero, not force")
	}
	if raw, _ := kv.Get(ctx.Ctx, "pity:test"); raw != strconv.Itoa(1) {
		t.Fatalf("counter = %q, want 1", raw)
	}
}
