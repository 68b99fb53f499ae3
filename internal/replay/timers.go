package replay

import (
	"sync"
	"time"
)

// TimerSet manages cancellable, pausable scheduled callbacks such as the
// "next night starts shortly" delay. Pausing freezes the remaining duration
// instead of cancelling; rollbacks and new games must CancelAll so a stale
// timer never fires into a replaced state.
type TimerSet struct {
	mu     sync.Mutex
	timers map[string]*scheduled
}

type scheduled struct {
	timer     *time.Timer
	fn        func()
	deadline  time.Time
	remaining time.Duration
	paused    bool
}

func NewTimerSet() *TimerSet {
	return &TimerSet{timers: make(map[string]*scheduled)}
}

// Schedule registers fn to run after d. An existing timer with the same id
// is cancelled first.
func (ts *TimerSet) Schedule(id string, d time.Duration, fn func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if old, ok := ts.timers[id]; ok && old.timer != nil {
		old.timer.Stop()
	}

	s := &scheduled{fn: fn, deadline: time.Now().Add(d)}
	s.timer = time.AfterFunc(d, func() {
		ts.mu.Lock()
		delete(ts.timers, id)
		ts.mu.Unlock()
		fn()
	})
	ts.timers[id] = s
}

// Pause stops the timer and freezes its remaining duration.
func (ts *TimerSet) Pause(id string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	s, ok := ts.timers[id]
	if !ok || s.paused {
		return false
	}
	if !s.timer.Stop() {
		// Already fired; the callback removed itself.
		return false
	}
	s.remaining = time.Until(s.deadline)
	if s.remaining < 0 {
		s.remaining = 0
	}
	s.paused = true
	s.timer = nil
	return true
}

// Resume reschedules a paused timer with its frozen remainder.
func (ts *TimerSet) Resume(id string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	s, ok := ts.timers[id]
	if !ok || !s.paused {
		return false
	}
	s.paused = false
	s.deadline = time.Now().Add(s.remaining)
	s.timer = time.AfterFunc(s.remaining, func() {
		ts.mu.Lock()
		delete(ts.timers, id)
		ts.mu.Unlock()
		s.fn()
	})
	return true
}

// Cancel removes the timer without firing its callback.
func (ts *TimerSet) Cancel(id string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	s, ok := ts.timers[id]
	if !ok {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	delete(ts.timers, id)
	return true
}

// CancelAll sweeps every pending timer.
func (ts *TimerSet) CancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for id, s := range ts.timers {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(ts.timers, id)
	}
}

// Remaining reports the time left on a timer, frozen if paused.
func (ts *TimerSet) Remaining(id string) (time.Duration, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	s, ok := ts.timers[id]
	if !ok {
		return 0, false
	}
	if s.paused {
		return s.remaining, true
	}
	d := time.Until(s.deadline)
	if d < 0 {
		d = 0
	}
	return d, true
}
