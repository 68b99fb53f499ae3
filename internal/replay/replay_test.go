package replay

import (
	"testing"
	"time"
)

type fakeState struct {
	Night int
	Alive []string
}

func TestCheckpointRollbackPrunesForward(t *testing.T) {
	cps := NewCheckpoints[fakeState](5)

	a := cps.Take("night 1", 10, fakeState{Night: 1})
	cps.Take("night 2", 20, fakeState{Night: 2})
	cps.Take("night 3", 30, fakeState{Night: 3})

	cp, ok := cps.RollbackTo(a.ID)
	if !ok {
		t.Fatal("rollback target not found")
	}
	if cp.State.Night != 1 || cp.ActionSequence != 10 {
		t.Fatalf("restored %+v, want night 1 @ seq 10", cp)
	}
	if got := len(cps.List()); got != 1 {
		t.Fatalf("checkpoints after rollback = %d, forward history must be pruned", got)
	}

	if _, ok := cps.RollbackTo("nope"); ok {
		t.Error("rollback to an unknown id should fail")
	}
	if got := len(cps.List()); got != 1 {
		t.Errorf("a failed rollback pruned %d checkpoints", 1-got)
	}
}

func TestCheckpointRingEvictsOldest(t *testing.T) {
	cps := NewCheckpoints[fakeState](2)
	first := cps.Take("one", 1, fakeState{Night: 1})
	cps.Take("two", 2, fakeState{Night: 2})
	cps.Take("three", 3, fakeState{Night: 3})

	if _, ok := cps.Get(first.ID); ok {
		t.Error("oldest checkpoint should have been evicted")
	}
	if got := len(cps.List()); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
}

func TestActionLogTruncate(t *testing.T) {
	log := NewActionLog(10)
	var keepSeq int64
	for i := 0; i < 5; i++ {
		e := log.Append(LogEntry{Type: "step", Label: "x"})
		if i == 2 {
			keepSeq = e.Sequence
		}
	}

	log.Truncate(keepSeq)
	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if log.Sequence() != keepSeq {
		t.Fatalf("sequence = %d, want %d", log.Sequence(), keepSeq)
	}

	next := log.Append(LogEntry{Type: "step"})
	if next.Sequence != keepSeq+1 {
		t.Fatalf("post-truncate sequence = %d, want %d", next.Sequence, keepSeq+1)
	}
}

func TestUndoStackLinearHistory(t *testing.T) {
	s := NewUndoStack[string]()
	s.Push("a")
	s.Push("b")

	if cmd, _ := s.Undo(); cmd != "b" {
		t.Fatalf("undo = %q, want b", cmd)
	}
	if !s.CanRedo() {
		t.Fatal("redo should be available after undo")
	}

	// A new action permanently prunes the redo branch.
	s.Push("c")
	if s.CanRedo() {
		t.Error("push must clear the redo stack")
	}

	if cmd, _ := s.Undo(); cmd != "c" {
		t.Fatalf("undo = %q, want c", cmd)
	}
	if cmd, _ := s.Redo(); cmd != "c" {
		t.Fatalf("redo = %q, want c", cmd)
	}
}

func TestTimerPauseFreezesRemaining(t *testing.T) {
	ts := NewTimerSet()
	fired := make(chan struct{}, 1)

	ts.Schedule("night", time.Hour, func() { fired <- struct{}{} })
	if !ts.Pause("night") {
		t.Fatal("pause failed")
	}

	frozen, ok := ts.Remaining("night")
	if !ok || frozen <= 0 || frozen > time.Hour {
		t.Fatalf("remaining = %v, %v", frozen, ok)
	}

	// Frozen means frozen: no drift while paused.
	time.Sleep(10 * time.Millisecond)
	again, _ := ts.Remaining("night")
	if again != frozen {
		t.Fatalf("remaining drifted while paused: %v != %v", again, frozen)
	}

	if !ts.Resume("night") {
		t.Fatal("resume failed")
	}
	if !ts.Cancel("night") {
		t.Fatal("cancel failed")
	}

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimerCancelAll(t *testing.T) {
	ts := NewTimerSet()
	fired := make(chan string, 2)
	ts.Schedule("a", 5*time.Millisecond, func() { fired <- "a" })
	ts.Schedule("b", 5*time.Millisecond, func() { fired <- "b" })

	ts.CancelAll()

	select {
	case id := <-fired:
		t.Fatalf("timer %q fired after CancelAll", id)
	case <-time.After(25 * time.Millisecond):
	}
	if _, ok := ts.Remaining("a"); ok {
		t.Error("timer a still registered")
	}
}

func TestScheduledTimerFires(t *testing.T) {
	ts := NewTimerSet()
	fired := make(chan struct{})
	ts.Schedule("soon", time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	if _, ok := ts.Remaining("soon"); ok {
		t.Error("fired timer should remove itself")
	}
}
