package sched

import "testing"

func intp(n int) *int { return &n }

func TestAddModifierDeduplicatesByID(t *testing.T) {
	s := New(nil)

	first := s.AddModifier(Modifier{ID: "blood-moon", Label: "Blood Moon"})
	if first == nil {
		t.Fatal("first add returned nil")
	}
	second := s.AddModifier(Modifier{ID: "blood-moon", Label: "Blood Moon II", ExpiresAfterNight: intp(3)})
	if second == nil {
		t.Fatal("second add returned nil")
	}

	st := s.State()
	if len(st.Modifiers) != 1 {
		t.Fatalf("modifiers = %d, want 1", len(st.Modifiers))
	}
	m := st.Modifiers[0]
	if m.Label != "Blood Moon II" {
		t.Errorf("label = %q, later call's fields should win", m.Label)
	}
	if m.ExpiresAfterNight == nil || *m.ExpiresAfterNight != 3 {
		t.Errorf("expiresAfterNight = %v, want 3", m.ExpiresAfterNight)
	}
}

func TestAddModifierDerivesIDFromOrigin(t *testing.T) {
	s := New(nil)

	m := s.AddModifier(Modifier{OriginCardID: "full-moon"})
	if m == nil || m.ID != "full-moon" {
		t.Fatalf("modifier = %+v, want id derived from origin card", m)
	}
	if s.AddModifier(Modifier{}) != nil {
		t.Error("unusable modifier should be dropped, not added")
	}
}

func TestExpiryMonotonicity(t *testing.T) {
	s := New(nil)
	s.AddModifier(Modifier{ID: "scoped", ExpiresAfterNight: intp(2)})
	s.AddModifier(Modifier{ID: "eternal"})

	for night := 0; night <= 2; night++ {
		s.ClearExpiredModifiers(night)
		if !s.HasModifier("scoped") {
			t.Fatalf("modifier expired at night %d, should survive through night 2", night)
		}
	}

	s.ClearExpiredModifiers(3)
	if s.HasModifier("scoped") {
		t.Error("modifier with expiresAfterNight=2 still present at night 3")
	}
	if !s.HasModifier("eternal") {
		t.Error("never-expiring modifier was removed")
	}
}

func TestExpireHandlerRunsBeforeRemoval(t *testing.T) {
	s := New(nil)

	var expired []string
	s.Register("card", HandlerFuncs{
		ExpireFunc: func(m Modifier) { expired = append(expired, m.ID) },
	})

	s.AddModifier(Modifier{ID: "a", OriginCardID: "card", ExpiresAfterNight: intp(1)})
	s.AddModifier(Modifier{ID: "b", OriginCardID: "card"})

	s.ClearExpiredModifiers(2)
	if len(expired) != 1 || expired[0] != "a" {
		t.Fatalf("expired = %v, want [a]", expired)
	}

	s.RemoveModifier("b")
	if len(expired) != 2 || expired[1] != "b" {
		t.Fatalf("expired = %v, want [a b]", expired)
	}
}

func TestCompleteQueuedIsFIFOPerCard(t *testing.T) {
	s := New(nil)
	s.Enqueue(QueuedEffect{CardID: "other", Label: "first overall"})
	s.Enqueue(QueuedEffect{CardID: "phoenix", Label: "one"})
	s.Enqueue(QueuedEffect{CardID: "phoenix", Label: "two"})

	done := s.CompleteQueued("phoenix", nil)
	if done == nil || done.Label != "one" {
		t.Fatalf("completed %+v, want the first phoenix entry", done)
	}

	st := s.State()
	if len(st.Queued) != 2 {
		t.Fatalf("queued = %d, want 2", len(st.Queued))
	}
	if st.Queued[0].CardID != "other" {
		t.Error("unrelated queued entry was removed")
	}
	if s.CompleteQueued("missing", nil) != nil {
		t.Error("completing an absent card should return nil")
	}
}

func TestStateIsDefensiveCopy(t *testing.T) {
	s := New(nil)
	s.AddModifier(Modifier{ID: "m", Meta: map[string]any{"k": "v"}})

	st := s.State()
	st.Modifiers[0].ID = "mutated"
	st.Modifiers[0].Meta["k"] = "mutated"

	again := s.State()
	if again.Modifiers[0].ID != "m" || again.Modifiers[0].Meta["k"] != "v" {
		t.Error("snapshot mutation leaked into scheduler state")
	}
}

func TestNotifyAndSilent(t *testing.T) {
	var calls int
	s := New(func() { calls++ })

	s.AddModifier(Modifier{ID: "m"})
	s.Enqueue(QueuedEffect{CardID: "c"})
	if calls != 2 {
		t.Fatalf("notify calls = %d, want 2", calls)
	}

	s.ClearAll(true)
	s.ReplaceState(State{}, true)
	if calls != 2 {
		t.Errorf("silent operations notified, calls = %d", calls)
	}
}
