package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/exp/slog"
)

type Options struct {
	DSN               string
	ConnectTimeout    time.Duration
	RetryInterval     time.Duration
	HeartbeatInterval time.Duration
	MaxOpenConns      int
	MaxIdleConns      int
	// MaxAttempts stops Connect after that many failed pings; 0 retries
	// until ctx is done.
	MaxAttempts int
}

func DefaultOptions() Options {
	return Options{
		ConnectTimeout:    30 * time.Second,
		RetryInterval:     5 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		MaxOpenConns:      10,
		MaxIdleConns:      5,
	}
}

// DB is a postgres handle that keeps an eye on connectivity after start.
type DB struct {
	*sql.DB

	logger *slog.Logger
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// Connect opens the store and pings it until a ping succeeds, ctx is done
// or MaxAttempts is reached. Each ping is bounded by ConnectTimeout and
// failed pings are spaced by RetryInterval.
func Connect(ctx context.Context, logger *slog.Logger, opts Options) (*DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("database DSN is empty")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultOptions().ConnectTimeout
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultOptions().RetryInterval
	}

	sqlDB, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	attempt := 0
	for {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
		err = sqlDB.PingContext(attemptCtx)
		cancel()
		if err == nil {
			break
		}

		logger.Warn("store not reachable",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			sqlDB.Close()
			return nil, fmt.Errorf("connecting to database after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			sqlDB.Close()
			return nil, fmt.Errorf("connecting to database after %d attempts: %w", attempt, err)
		case <-time.After(opts.RetryInterval):
		}
	}

	logger.Info("store connected", slog.Int("attempts", attempt))

	db := &DB{
		DB:     sqlDB,
		logger: logger,
		stop:   make(chan struct{}),
	}

	if opts.HeartbeatInterval > 0 {
		db.wg.Add(1)
		go db.monitor(opts.HeartbeatInterval)
	}

	return db, nil
}

func (db *DB) monitor(every time.Duration) {
	defer db.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-db.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), every)
		err := db.PingContext(ctx)
		cancel()

		switch {
		case err != nil && healthy:
			healthy = false
			db.logger.Error("store disconnected", slog.String("error", err.Error()))
		case err == nil && !healthy:
			healthy = true
			db.logger.Info("store reconnected")
		}
	}
}

// Close stops the heartbeat and closes the pool.
func (db *DB) Close() error {
	db.once.Do(func() { close(db.stop) })
	db.wg.Wait()
	return db.DB.Close()
}
