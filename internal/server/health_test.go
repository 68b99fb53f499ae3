package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thiercelieux/narrator/internal/database"
)

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   0,
	})
}

func TestHandleHealth(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sqlite only", func(t *testing.T) {
		w := httptest.NewRecorder()
		handleHealth(logger, db, nil)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var checks map[string]HealthCheck
		json.NewDecoder(w.Body).Decode(&checks)
		if checks["sqlite"].Status != "ok" {
			t.Errorf("expected sqlite ok, got %+v", checks)
		}
		if _, ok := checks["redis"]; ok {
			t.Errorf("redis not configured, must not be reported: %+v", checks)
		}
	})

	t.Run("redis down", func(t *testing.T) {
		w := httptest.NewRecorder()
		handleHealth(logger, db, deadRedis())(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
		var checks map[string]HealthCheck
		json.NewDecoder(w.Body).Decode(&checks)
		if checks["redis"].Status != "error" {
			t.Errorf("expected redis error, got %+v", checks)
		}
	})
}
