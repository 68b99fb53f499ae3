// Package sched holds the transient rule modifiers and deferred effects
// produced by night events. It is pure state plus handler dispatch: it has
// no knowledge of phases and never decides when an effect fires, only
// records that it should.
package sched

import (
	"time"

	"github.com/google/uuid"

	"github.com/thiercelieux/narrator/internal/ring"
)

const historyCap = 25

// Modifier is a named, possibly night-scoped temporary rule change.
// Identity is ID; adding a modifier with an existing ID replaces it.
// A nil ExpiresAfterNight means the modifier never auto-expires.
type Modifier struct {
	ID                string         `json:"id"`
	Label             string         `json:"label"`
	OriginCardID      string         `json:"originCardId"`
	ExpiresAfterNight *int           `json:"expiresAfterNight"`
	Meta              map[string]any `json:"meta,omitempty"`
}

// QueuedEffect is an event outcome deferred to a later phase boundary.
type QueuedEffect struct {
	ID          string         `json:"id"`
	CardID      string         `json:"cardId"`
	Label       string         `json:"label"`
	Meta        map[string]any `json:"meta,omitempty"`
	Night       int            `json:"night"`
	ScheduledAt time.Time      `json:"scheduledAt"`
}

// HistoryEntry records a resolved or attempted event outcome for narrator
// transparency. This is independent of the action log used for replay.
type HistoryEntry struct {
	ID         string         `json:"id"`
	CardID     string         `json:"cardId"`
	Label      string         `json:"label"`
	Triggered  bool           `json:"triggered"`
	Detail     map[string]any `json:"detail,omitempty"`
	Night      int            `json:"night"`
	RecordedAt time.Time      `json:"recordedAt"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
}

// State is a plain, JSON-compatible snapshot of the scheduler.
type State struct {
	Modifiers []Modifier     `json:"modifiers"`
	Queued    []QueuedEffect `json:"queued"`
	History   []HistoryEntry `json:"history"`
}

// Scheduler is created per session; there is no package-level instance.
// Every mutating call invokes the notify callback supplied at construction
// unless the operation is explicitly silent.
type Scheduler struct {
	notify    func()
	handlers  map[string]CardHandlers
	modifiers []Modifier
	queued    []QueuedEffect
	history   *ring.Buffer[HistoryEntry]
}

func New(notify func()) *Scheduler {
	if notify == nil {
		notify = func() {}
	}
	return &Scheduler{
		notify:   notify,
		handlers: make(map[string]CardHandlers),
		history:  ring.New[HistoryEntry](historyCap),
	}
}

// Register binds handlers to a card id. Later registrations win.
func (s *Scheduler) Register(cardID string, h CardHandlers) {
	if cardID == "" || h == nil {
		return
	}
	s.handlers[cardID] = h
}

// handlerFor looks up handlers by origin card id, then by modifier id.
// Unknown ids get a no-op handler; a missing handler is not an error.
func (s *Scheduler) handlerFor(originCardID, id string) CardHandlers {
	if h, ok := s.handlers[originCardID]; ok {
		return h
	}
	if h, ok := s.handlers[id]; ok {
		return h
	}
	return NopHandlers{}
}

// AddModifier normalizes m, de-duplicates by id, runs the apply handler and
// notifies. Returns nil if the input is unusable; it never panics.
func (s *Scheduler) AddModifier(m Modifier) *Modifier {
	if m.ID == "" {
		m.ID = m.OriginCardID
	}
	if m.ID == "" {
		return nil
	}
	if m.Label == "" {
		m.Label = m.ID
	}

	replaced := false
	for i := range s.modifiers {
		if s.modifiers[i].ID == m.ID {
			s.modifiers[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		s.modifiers = append(s.modifiers, m)
	}

	s.handlerFor(m.OriginCardID, m.ID).Apply(m)
	s.notify()
	return &m
}

// ClearExpiredModifiers removes every modifier expiring strictly before
// currentNight, running its expire handler first. The phase controller must
// call this exactly once per night transition, before event evaluation, so
// an expiring modifier does not leak into the new night.
func (s *Scheduler) ClearExpiredModifiers(currentNight int) []Modifier {
	var kept []Modifier
	var removed []Modifier
	for _, m := range s.modifiers {
		if m.ExpiresAfterNight != nil && *m.ExpiresAfterNight < currentNight {
			s.handlerFor(m.OriginCardID, m.ID).Expire(m)
			removed = append(removed, m)
			continue
		}
		kept = append(kept, m)
	}
	if len(removed) == 0 {
		return nil
	}
	s.modifiers = kept
	s.notify()
	return removed
}

// RemoveModifier force-expires a modifier by id, used for admin cancellation.
func (s *Scheduler) RemoveModifier(id string) bool {
	for i, m := range s.modifiers {
		if m.ID == id {
			s.handlerFor(m.OriginCardID, m.ID).Expire(m)
			s.modifiers = append(s.modifiers[:i], s.modifiers[i+1:]...)
			s.notify()
			return true
		}
	}
	return false
}

// HasModifier reports whether a modifier with id is currently active.
func (s *Scheduler) HasModifier(id string) bool {
	for _, m := range s.modifiers {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Enqueue normalizes and appends a deferred effect. The scheduler does not
// enforce one-entry-per-card; callers check HasQueued first when they need
// single-flight behavior.
func (s *Scheduler) Enqueue(q QueuedEffect) *QueuedEffect {
	if q.CardID == "" {
		return nil
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Label == "" {
		q.Label = q.CardID
	}
	if q.ScheduledAt.IsZero() {
		q.ScheduledAt = time.Now().UTC()
	}
	s.queued = append(s.queued, q)
	s.handlerFor(q.CardID, q.ID).OnEnqueue(q)
	s.notify()
	return &q
}

// HasQueued reports whether any queued effect matches cardID.
func (s *Scheduler) HasQueued(cardID string) bool {
	for _, q := range s.queued {
		if q.CardID == cardID {
			return true
		}
	}
	return false
}

// CompleteQueued removes the first queued entry matching cardID (FIFO per
// card, not global order), runs OnComplete, appends to history and returns
// the completed entry, or nil if none matched.
func (s *Scheduler) CompleteQueued(cardID string, payload map[string]any) *QueuedEffect {
	for i, q := range s.queued {
		if q.CardID != cardID {
			continue
		}
		s.queued = append(s.queued[:i], s.queued[i+1:]...)
		s.handlerFor(q.CardID, q.ID).OnComplete(q.Meta, payload)

		now := time.Now().UTC()
		s.history.Push(HistoryEntry{
			ID:         uuid.NewString(),
			CardID:     q.CardID,
			Label:      q.Label,
			Triggered:  true,
			Detail:     q.Meta,
			Night:      q.Night,
			RecordedAt: now,
			ResolvedAt: &now,
		})
		s.notify()
		return &q
	}
	return nil
}

// RecordHistory appends an outcome entry, evicting the oldest past the cap.
func (s *Scheduler) RecordHistory(e HistoryEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	s.history.Push(e)
	s.notify()
}

// ClearAll resets modifiers, queue and history. Silent skips notification,
// for bulk restore paths.
func (s *Scheduler) ClearAll(silent bool) {
	s.modifiers = nil
	s.queued = nil
	s.history.Clear()
	if !silent {
		s.notify()
	}
}

// ReplaceState overwrites the scheduler with a snapshot, normalizing as it
// goes. Handlers are not re-run: restored state is assumed already applied.
func (s *Scheduler) ReplaceState(next State, silent bool) {
	s.modifiers = nil
	for _, m := range next.Modifiers {
		if m.ID == "" {
			m.ID = m.OriginCardID
		}
		if m.ID == "" {
			continue
		}
		s.modifiers = append(s.modifiers, cloneModifier(m))
	}
	s.queued = nil
	for _, q := range next.Queued {
		if q.CardID == "" {
			continue
		}
		s.queued = append(s.queued, cloneQueued(q))
	}
	entries := make([]HistoryEntry, 0, len(next.History))
	for _, e := range next.History {
		entries = append(entries, cloneHistory(e))
	}
	s.history.Replace(entries)
	if !silent {
		s.notify()
	}
}

// State returns a defensively copied snapshot; callers never hold a live
// reference into the scheduler.
func (s *Scheduler) State() State {
	st := State{
		Modifiers: make([]Modifier, 0, len(s.modifiers)),
		Queued:    make([]QueuedEffect, 0, len(s.queued)),
		History:   make([]HistoryEntry, 0, s.history.Len()),
	}
	for _, m := range s.modifiers {
		st.Modifiers = append(st.Modifiers, cloneModifier(m))
	}
	for _, q := range s.queued {
		st.Queued = append(st.Queued, cloneQueued(q))
	}
	for _, e := range s.history.Items() {
		st.History = append(st.History, cloneHistory(e))
	}
	return st
}

func cloneModifier(m Modifier) Modifier {
	if m.ExpiresAfterNight != nil {
		n := *m.ExpiresAfterNight
		m.ExpiresAfterNight = &n
	}
	m.Meta = cloneMeta(m.Meta)
	return m
}

func cloneQueued(q QueuedEffect) QueuedEffect {
	q.Meta = cloneMeta(q.Meta)
	return q
}

func cloneHistory(e HistoryEntry) HistoryEntry {
	e.Detail = cloneMeta(e.Detail)
	if e.ResolvedAt != nil {
		t := *e.ResolvedAt
		e.ResolvedAt = &t
	}
	return e
}

func cloneMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
