package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dipesh37/quiz1/internal/config"
	"github.com/dipesh37/quiz1/internal/database"

	"gorm.io/driver/sqlite"
)

// Config returns settings suitable for a single-connection SQLite store.
func Config() *config.Config {
	return &config.Config{
		DatabaseURL:     "sqlite",
		Port:            "0",
		Environment:     "test",
		ConnectTimeout:  2 * time.Second,
		IdleTimeout:     time.Minute,
		RetryDelay:      10 * time.Millisecond,
		MaxOpenConns:    1,
		AllowedOrigins:  []string{"*"},
		AllowedDomain:   "nitj.ac.in",
		ShutdownTimeout: time.Second,
	}
}

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SQLiteStore returns an unconnected store backed by a file at path.
func SQLiteStore(path string) *database.Store {
	dsn := path + "?_busy_timeout=5000"
	return database.NewWithDialector(sqlite.Open(dsn), Config(), DiscardLogger())
}

// NewStore returns a connected, migrated store in a temp directory that is
// closed when the test ends.
func NewStore(t testing.TB) *database.Store {
	t.Helper()

	store := SQLiteStore(filepath.Join(t.TempDir(), "submissions.db"))
	if err := store.Connect(context.Background()); err != nil {
		t.Fatalf("connect test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
