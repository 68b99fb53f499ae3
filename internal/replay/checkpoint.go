// Package replay wraps phase transitions and admin edits with the machinery
// needed to step the game backwards: full-state checkpoints for coarse
// rollback, data-only undo commands for fine-grained edits, an append-only
// action log, and pausable timers that are swept on every rollback.
package replay

import (
	"time"

	"github.com/google/uuid"

	"github.com/thiercelieux/narrator/internal/ring"
)

const (
	// DefaultCheckpointCap bounds the checkpoint ring; replay granularity
	// equals checkpoint density by design, not action-log density.
	DefaultCheckpointCap = 20

	// DefaultLogCap bounds the live-session action log.
	DefaultLogCap = 500
)

// Checkpoint pairs a full state snapshot with the action-log position it
// was taken at.
type Checkpoint[S any] struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	Timestamp      time.Time `json:"timestamp"`
	ActionSequence int64     `json:"actionSequence"`
	State          S         `json:"state"`
}

// Checkpoints is a capped ring of snapshots, oldest evicted first.
type Checkpoints[S any] struct {
	buf *ring.Buffer[Checkpoint[S]]
}

func NewCheckpoints[S any](capacity int) *Checkpoints[S] {
	if capacity <= 0 {
		capacity = DefaultCheckpointCap
	}
	return &Checkpoints[S]{buf: ring.New[Checkpoint[S]](capacity)}
}

// Take records a snapshot and returns the stored checkpoint.
func (c *Checkpoints[S]) Take(label string, actionSeq int64, state S) Checkpoint[S] {
	cp := Checkpoint[S]{
		ID:             uuid.NewString(),
		Label:          label,
		Timestamp:      time.Now().UTC(),
		ActionSequence: actionSeq,
		State:          state,
	}
	c.buf.Push(cp)
	return cp
}

// Get finds a checkpoint by id.
func (c *Checkpoints[S]) Get(id string) (Checkpoint[S], bool) {
	for _, cp := range c.buf.Items() {
		if cp.ID == id {
			return cp, true
		}
	}
	var zero Checkpoint[S]
	return zero, false
}

// RollbackTo returns the checkpoint with id and discards every checkpoint
// taken after it: history is linear, a restored past has no forward branch.
func (c *Checkpoints[S]) RollbackTo(id string) (Checkpoint[S], bool) {
	target, ok := c.Get(id)
	if !ok {
		var zero Checkpoint[S]
		return zero, false
	}
	for {
		cp, ok := c.buf.Last()
		if !ok || cp.ID == id {
			return target, true
		}
		c.buf.DropNewest()
	}
}

// Latest returns the most recent checkpoint, if any.
func (c *Checkpoints[S]) Latest() (Checkpoint[S], bool) {
	return c.buf.Last()
}

// List returns all checkpoints, oldest first.
func (c *Checkpoints[S]) List() []Checkpoint[S] {
	return c.buf.Items()
}

// Replace resets the ring from a persisted session document.
func (c *Checkpoints[S]) Replace(items []Checkpoint[S]) {
	c.buf.Replace(items)
}

func (c *Checkpoints[S]) Clear() {
	c.buf.Clear()
}
