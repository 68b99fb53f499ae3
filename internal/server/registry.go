package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/thiercelieux/narrator/internal/deck"
	"github.com/thiercelieux/narrator/internal/game"
	"github.com/thiercelieux/narrator/internal/sched"
	"github.com/thiercelieux/narrator/internal/storage"
)

// LiveSession is one loaded narrator session. The controller is
// single-threaded; every access goes through the session mutex, and the
// same mutex gates the controller's timer callbacks.
type LiveSession struct {
	ID int64

	mu     sync.Mutex
	ctrl   *game.Controller
	decks  *deck.Evaluator
	doc    SessionDoc
	store  Store
	logger *slog.Logger
}

// Do runs fn under the session lock and persists the resulting snapshot.
// Persistence failures are logged and swallowed; the in-memory session
// stays authoritative.
func (l *LiveSession) Do(fn func(*game.Controller) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := fn(l.ctrl)
	l.persistLocked()
	return err
}

// DoDecks runs fn against the deck evaluator under the session lock and
// persists the resulting snapshot.
func (l *LiveSession) DoDecks(fn func(*deck.Evaluator)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.decks)
	l.persistLocked()
}

// ViewDecks runs fn against the deck evaluator without persisting.
func (l *LiveSession) ViewDecks(fn func(*deck.Evaluator)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.decks)
}

// View runs fn under the session lock without persisting.
func (l *LiveSession) View(fn func(*game.Controller)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.ctrl)
}

// Doc returns a copy of the session's metadata document.
func (l *LiveSession) Doc() SessionDoc {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc
}

func (l *LiveSession) persistLocked() {
	snap := l.ctrl.SessionSnapshot()
	l.doc.Snapshot = &snap
	if err := l.store.SaveSession(context.Background(), l.doc); err != nil {
		l.logger.Warn("persisting session failed", "session", l.ID, "error", err)
	}
}

// presenter forwards controller updates to broker subscribers.
type presenter struct {
	broker *Broker
	id     int64
}

func (p presenter) Present(u game.Update) {
	p.broker.Publish(p.id, Event{Type: "update", Update: &u})
}

// Registry holds the loaded live sessions, constructing each one lazily
// from its persisted document.
type Registry struct {
	store  Store
	kv     storage.KV
	broker *Broker
	logger *slog.Logger

	mu   sync.RWMutex
	live map[int64]*LiveSession
}

func NewRegistry(store Store, kv storage.KV, broker *Broker, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		kv:     kv,
		broker: broker,
		logger: logger,
		live:   make(map[int64]*LiveSession),
	}
}

func (r *Registry) Get(ctx context.Context, id int64) (*LiveSession, error) {
	r.mu.RLock()
	l, ok := r.live[id]
	r.mu.RUnlock()
	if ok {
		return l, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if l, ok := r.live[id]; ok {
		return l, nil
	}

	l, err := r.open(ctx, id)
	if err != nil {
		return nil, err
	}
	r.live[id] = l
	return l, nil
}

func (r *Registry) open(ctx context.Context, id int64) (*LiveSession, error) {
	doc, err := r.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	l := &LiveSession{
		ID:     id,
		doc:    doc,
		store:  r.store,
		logger: r.logger,
	}

	sc := sched.New(func() {
		r.broker.Publish(id, Event{Type: "scheduler"})
	})
	kv := storage.Scoped(r.kv, fmt.Sprintf("session:%d", id))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ev := deck.NewEvaluator(deck.DefaultCards(), kv, sc, rng, r.logger)
	l.decks = ev

	l.ctrl = game.NewController(game.Config{
		Scheduler: sc,
		Decks:     ev,
		KV:        kv,
		Logger:    r.logger,
		Presenter: presenter{broker: r.broker, id: id},
		Gate:      &l.mu,
	})

	// A snapshot without live state means the game was finished and torn
	// down; reopen with a fresh cast instead.
	if doc.Snapshot != nil && doc.Snapshot.Core.State != nil {
		if err := l.ctrl.RestoreSession(*doc.Snapshot); err != nil {
			return nil, fmt.Errorf("restoring session %d: %w", id, err)
		}
		return l, nil
	}

	roles, jobs, err := parseCast(doc.Roles, doc.Jobs)
	if err != nil {
		return nil, fmt.Errorf("loading session %d: %w", id, err)
	}
	if err := l.ctrl.AssignRoles(doc.Players, roles, jobs); err != nil {
		return nil, fmt.Errorf("loading session %d: %w", id, err)
	}
	return l, nil
}

// Drop unloads a live session, cancelling its timers. The persisted
// document is untouched.
func (r *Registry) Drop(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.live[id]; ok {
		l.ctrl.Close()
		delete(r.live, id)
	}
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.live {
		l.ctrl.Close()
		delete(r.live, id)
	}
	return nil
}

func parseCast(roles []string, jobs [][]string) ([]game.Role, [][]game.Job, error) {
	parsed := make([]game.Role, len(roles))
	for i, s := range roles {
		role, err := game.ParseRole(s)
		if err != nil {
			return nil, nil, err
		}
		parsed[i] = role
	}
	var parsedJobs [][]game.Job
	if jobs != nil {
		parsedJobs = make([][]game.Job, len(jobs))
		for i, js := range jobs {
			for _, s := range js {
				job, err := game.ParseJob(s)
				if err != nil {
					return nil, nil, err
				}
				parsedJobs[i] = append(parsedJobs[i], job)
			}
		}
	}
	return parsed, parsedJobs, nil
}
