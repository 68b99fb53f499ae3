// Package storage defines the key/value collaborator the game core uses
// for durable scalars (pity counters, campaign progress) and documents.
// Callers treat persistence as best-effort: read errors degrade to the
// zero value and write errors only affect durability, never the live game.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
