package server

import (
	"context"
	"errors"

	"github.com/thiercelieux/narrator/internal/game"
)

var ErrNotFound = errors.New("not found")

// SessionDoc is the persisted session document. IDs are millisecond
// timestamps so a plain descending sort yields newest-first.
type SessionDoc struct {
	ID        int64                 `json:"id"`
	Name      string                `json:"name"`
	CreatedAt string                `json:"createdAt"`
	UpdatedAt string                `json:"updatedAt"`
	Players   []string              `json:"players"`
	Roles     []string              `json:"roles"`
	Jobs      [][]string            `json:"jobs,omitempty"`
	Snapshot  *game.SessionSnapshot `json:"snapshot,omitempty"`
}

// SessionSummary is the list-view projection of a session.
type SessionSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	PlayerCount int    `json:"playerCount"`
	Phase       string `json:"phase,omitempty"`
}

type Store interface {
	// CreateSession assigns the id and prunes sessions beyond the
	// configured cap, oldest first.
	CreateSession(ctx context.Context, doc SessionDoc) (SessionDoc, error)
	GetSession(ctx context.Context, id int64) (SessionDoc, error)
	SaveSession(ctx context.Context, doc SessionDoc) error
	DeleteSession(ctx context.Context, id int64) error
	ListSessions(ctx context.Context) ([]SessionSummary, error)
}
