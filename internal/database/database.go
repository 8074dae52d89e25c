package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dipesh37/quiz1/internal/config"
	"github.com/dipesh37/quiz1/internal/logger"
	"github.com/dipesh37/quiz1/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrNotConnected = errors.New("database not connected")

const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"

	pingTimeout = 2 * time.Second
)

// Store owns the process-wide database handle. It may start out
// disconnected; DB reports ErrNotConnected until a connect attempt succeeds.
type Store struct {
	dialector gorm.Dialector
	cfg       *config.Config
	log       *slog.Logger

	mu        sync.RWMutex
	db        *gorm.DB
	connected bool
}

func New(cfg *config.Config, log *slog.Logger) *Store {
	return NewWithDialector(postgres.New(postgres.Config{DSN: cfg.DatabaseURL}), cfg, log)
}

func NewWithDialector(d gorm.Dialector, cfg *config.Config, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{dialector: d, cfg: cfg, log: log.With("component", "database")}
}

// Connect opens the pool, pings it within the connect timeout and migrates
// the schema.
func (s *Store) Connect(ctx context.Context) error {
	db, err := gorm.Open(s.dialector, &gorm.Config{
		Logger:               logger.Gorm(s.log),
		TranslateError:       true,
		DisableAutomaticPing: true,
		NowFunc:              func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(s.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(s.cfg.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(s.cfg.IdleTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		sqlDB.Close()
		return err
	}

	s.mu.Lock()
	old := s.db
	s.db = db
	s.mu.Unlock()
	if old != nil {
		if oldSQL, err := old.DB(); err == nil {
			oldSQL.Close()
		}
	}

	s.setConnected(true)
	return nil
}

// Start makes the initial connection attempt and, if it fails, schedules a
// single retry after the configured delay. The returned channel is closed
// once no further attempts will be made.
func (s *Store) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	err := s.Connect(ctx)
	if err == nil {
		close(done)
		return done
	}

	s.log.Error("database connection failed, server continues without it",
		"error", err, "retry_in", s.cfg.RetryDelay)
	go func() {
		defer close(done)

		t := time.NewTimer(s.cfg.RetryDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		s.log.Info("retrying database connection")
		if err := s.Connect(ctx); err != nil {
			s.log.Error("database retry failed", "error", err)
		}
	}()
	return done
}

// DB returns the live handle bound to ctx.
func (s *Store) DB(ctx context.Context) (*gorm.DB, error) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db.WithContext(ctx), nil
}

// State pings the pool and reports "connected" or "disconnected".
func (s *Store) State(ctx context.Context) string {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return StateDisconnected
	}

	sqlDB, err := db.DB()
	if err != nil {
		s.setConnected(false)
		return StateDisconnected
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		s.setConnected(false)
		return StateDisconnected
	}
	s.setConnected(true)
	return StateConnected
}

func (s *Store) Close() error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()
	if db == nil {
		return nil
	}

	s.setConnected(false)
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) setConnected(v bool) {
	s.mu.Lock()
	changed := s.connected != v
	s.connected = v
	s.mu.Unlock()
	if !changed {
		return
	}
	if v {
		s.log.Info("database connected")
	} else {
		s.log.Warn("database disconnected")
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Submission{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	slog.Debug("database migrated")
	return nil
}
