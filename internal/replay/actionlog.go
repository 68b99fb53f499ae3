package replay

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/thiercelieux/narrator/internal/ring"
)

// LogEntry is one narrator-visible history line. Sequence is monotonic for
// the session and survives ring eviction, so checkpoints can reference
// positions that have scrolled out of the live window.
type LogEntry struct {
	ID        string            `json:"id"`
	Sequence  int64             `json:"sequence"`
	Type      string            `json:"type"`
	Label     string            `json:"label"`
	Detail    string            `json:"detail,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Phase     string            `json:"phase,omitempty"`
	Step      string            `json:"step,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ActionLog is the capped live-session journal.
type ActionLog struct {
	seq atomic.Int64
	buf *ring.Buffer[LogEntry]
}

func NewActionLog(capacity int) *ActionLog {
	if capacity <= 0 {
		capacity = DefaultLogCap
	}
	return &ActionLog{buf: ring.New[LogEntry](capacity)}
}

// Append records an entry, assigning id, sequence and timestamp.
func (l *ActionLog) Append(e LogEntry) LogEntry {
	e.ID = uuid.NewString()
	e.Sequence = l.seq.Add(1)
	e.CreatedAt = time.Now().UTC()
	l.buf.Push(e)
	return e
}

// Sequence returns the last assigned sequence number.
func (l *ActionLog) Sequence() int64 { return l.seq.Load() }

// Entries returns the live window, oldest first.
func (l *ActionLog) Entries() []LogEntry { return l.buf.Items() }

// Truncate drops every entry with a sequence greater than seq; used when a
// rollback prunes history recorded after the restored checkpoint.
func (l *ActionLog) Truncate(seq int64) {
	items := l.buf.Items()
	kept := items[:0]
	for _, e := range items {
		if e.Sequence <= seq {
			kept = append(kept, e)
		}
	}
	l.buf.Replace(kept)
	l.seq.Store(seq)
}

// Replace restores the journal from a persisted session document.
func (l *ActionLog) Replace(entries []LogEntry) {
	l.buf.Replace(entries)
	var max int64
	for _, e := range entries {
		if e.Sequence > max {
			max = e.Sequence
		}
	}
	l.seq.Store(max)
}

func (l *ActionLog) Clear() {
	l.buf.Clear()
	l.seq.Store(0)
}
