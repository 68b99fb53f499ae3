package game

import (
	"context"
	"fmt"
	"time"

	"github.com/thiercelieux/narrator/internal/replay"
)

// coreSnapshot captures the composite state of one checkpoint: controller
// position, game state, scheduler state and campaign progress.
func (c *Controller) coreSnapshot() CoreSnapshot {
	return CoreSnapshot{
		State:     c.state.Clone(),
		Phase:     c.phase,
		Steps:     append([]StepID(nil), c.steps...),
		StepIdx:   c.stepIdx,
		Accused:   append([]int(nil), c.accused...),
		Scheduler: c.sc.State(),
		Campaign:  c.decks.Snapshot(),
	}
}

func (c *Controller) restoreCore(snap CoreSnapshot) {
	c.state = snap.State.Clone()
	c.phase = snap.Phase
	c.steps = append([]StepID(nil), snap.Steps...)
	c.stepIdx = snap.StepIdx
	c.accused = append([]int(nil), snap.Accused...)
	c.pending = nil
	c.outcome = nil
	c.sc.ReplaceState(snap.Scheduler, true)
	c.decks.Restore(snap.Campaign)
}

// takeCheckpoint must run at the phase boundary, before any following
// mutation reaches the undo stacks.
func (c *Controller) takeCheckpoint(label string) replay.Checkpoint[CoreSnapshot] {
	return c.checkpoints.Take(label, c.log.Sequence(), c.coreSnapshot())
}

// Checkpoints lists the rollback points, oldest first.
func (c *Controller) Checkpoints() []replay.Checkpoint[CoreSnapshot] {
	return c.checkpoints.List()
}

// ActionLog returns the live journal window.
func (c *Controller) ActionLog() []replay.LogEntry {
	return c.log.Entries()
}

// RollbackTo restores a checkpoint and discards everything ahead of it:
// pending timers, the undo/redo stacks, later checkpoints and later log
// entries. Replay granularity equals checkpoint density; actions between
// checkpoints are not replayed individually.
func (c *Controller) RollbackTo(checkpointID string) error {
	cp, ok := c.checkpoints.RollbackTo(checkpointID)
	if !ok {
		return fmt.Errorf("game: checkpoint %q not found", checkpointID)
	}
	c.timers.CancelAll()
	c.undo.Clear()
	c.restoreCore(cp.State)
	c.log.Truncate(cp.ActionSequence)
	c.appendLog("admin", "Rolled back", cp.Label, "")
	c.present([]string{"Rolled back to " + cp.Label + "."}, "")
	return nil
}

// SessionSnapshot produces the full persisted document for this session.
func (c *Controller) SessionSnapshot() SessionSnapshot {
	if c.state == nil {
		return SessionSnapshot{}
	}
	return SessionSnapshot{
		Core:        c.coreSnapshot(),
		ActionLog:   c.log.Entries(),
		Checkpoints: c.checkpoints.List(),
		TimerEvents: append([]TimerEvent(nil), c.timerEvents...),
		Outcome:     c.outcome,
	}
}

// RestoreSession rehydrates a controller from a persisted document. Timers
// are never restored: a loaded session starts with a clean timer set.
func (c *Controller) RestoreSession(snap SessionSnapshot) error {
	if snap.Core.State == nil {
		return ErrNoGame
	}
	c.timers.CancelAll()
	c.undo.Clear()
	c.restoreCore(snap.Core)
	c.outcome = snap.Outcome
	if c.outcome != nil {
		c.phase = PhaseGameOver
	}
	c.log.Replace(snap.ActionLog)
	c.checkpoints.Replace(snap.Checkpoints)
	c.timerEvents = append([]TimerEvent(nil), snap.TimerEvents...)
	return nil
}

// Close cancels every pending timer. A session being unloaded must not
// fire night transitions afterwards.
func (c *Controller) Close() {
	c.timers.CancelAll()
}

// ScheduleNextNight arms the delayed "next night" transition.
func (c *Controller) ScheduleNextNight(d time.Duration) error {
	if c.state == nil {
		return ErrNoGame
	}
	if c.phase != PhaseDayLynch {
		return ErrPhase
	}
	c.timers.Schedule(nextNightTimer, d, func() {
		if c.gate != nil {
			c.gate.Lock()
			defer c.gate.Unlock()
		}
		c.recordTimerEvent(nextNightTimer, "fired", 0)
		if err := c.StartNight(context.Background()); err != nil {
			c.logger.Warn("scheduled night start rejected", "error", err)
		}
	})
	c.recordTimerEvent(nextNightTimer, "scheduled", d)
	return nil
}

// PauseNextNight freezes the pending night timer.
func (c *Controller) PauseNextNight() bool {
	if !c.timers.Pause(nextNightTimer) {
		return false
	}
	remaining, _ := c.timers.Remaining(nextNightTimer)
	c.recordTimerEvent(nextNightTimer, "paused", remaining)
	return true
}

// ResumeNextNight reschedules a paused night timer with its frozen
// remainder.
func (c *Controller) ResumeNextNight() bool {
	remaining, _ := c.timers.Remaining(nextNightTimer)
	if !c.timers.Resume(nextNightTimer) {
		return false
	}
	c.recordTimerEvent(nextNightTimer, "resumed", remaining)
	return true
}

// CancelNextNight drops the pending night timer without firing it.
func (c *Controller) CancelNextNight() bool {
	if !c.timers.Cancel(nextNightTimer) {
		return false
	}
	c.recordTimerEvent(nextNightTimer, "cancelled", 0)
	return true
}

// NextNightRemaining reports the time left on the night timer.
func (c *Controller) NextNightRemaining() (time.Duration, bool) {
	return c.timers.Remaining(nextNightTimer)
}

func (c *Controller) recordTimerEvent(id, kind string, remaining time.Duration) {
	c.timerEvents = append(c.timerEvents, TimerEvent{
		At:        time.Now().UTC(),
		TimerID:   id,
		Kind:      kind,
		Remaining: remaining,
	})
}
