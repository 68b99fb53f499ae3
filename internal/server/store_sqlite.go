package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore persists session documents as JSONB rows in the sessions
// table. The blob column keeps the document schema-free; jsonb()/json()
// convert at the boundary.
type SQLiteStore struct {
	db  *sql.DB
	cap int
}

func NewSQLiteStore(db *sql.DB, maxSessions int) *SQLiteStore {
	if maxSessions <= 0 {
		maxSessions = 10
	}
	return &SQLiteStore{db: db, cap: maxSessions}
}

func (s *SQLiteStore) CreateSession(ctx context.Context, doc SessionDoc) (SessionDoc, error) {
	now := time.Now().UTC()
	doc.CreatedAt = now.Format(time.RFC3339Nano)
	doc.UpdatedAt = doc.CreatedAt

	// Millisecond timestamps collide only under rapid-fire creation;
	// bump until the insert lands.
	id := now.UnixMilli()
	for {
		doc.ID = id
		data, err := json.Marshal(doc)
		if err != nil {
			return SessionDoc{}, fmt.Errorf("encoding session: %w", err)
		}
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO sessions (id, created_at, updated_at, data)
			VALUES (?, ?, ?, jsonb(?))
		`, id, doc.CreatedAt, doc.UpdatedAt, string(data))
		if err != nil {
			return SessionDoc{}, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			break
		}
		id++
	}

	// Keep only the newest cap sessions.
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE id NOT IN (SELECT id FROM sessions ORDER BY id DESC LIMIT ?)
	`, s.cap)
	if err != nil {
		return SessionDoc{}, err
	}
	return doc, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (SessionDoc, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionDoc{}, ErrNotFound
	}
	if err != nil {
		return SessionDoc{}, err
	}
	var doc SessionDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return SessionDoc{}, fmt.Errorf("decoding session %d: %w", id, err)
	}
	return doc, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, doc SessionDoc) error {
	doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET updated_at = ?, data = jsonb(?) WHERE id = ?
	`, doc.UpdatedAt, string(data), doc.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM sessions ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []SessionSummary{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc SessionDoc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("decoding session list: %w", err)
		}
		sum := SessionSummary{
			ID:          doc.ID,
			Name:        doc.Name,
			CreatedAt:   doc.CreatedAt,
			UpdatedAt:   doc.UpdatedAt,
			PlayerCount: len(doc.Players),
		}
		if doc.Snapshot != nil {
			sum.Phase = string(doc.Snapshot.Core.Phase)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
