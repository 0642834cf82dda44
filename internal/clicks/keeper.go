package clicks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate"
	"github.com/golang-migrate/migrate/database/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/mkovardin/shopfront/internal/models"
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Keeper records outbound affiliate clicks in Postgres. Events are
// buffered in memory and flushed as a batch so the redirect path
// never waits on the database. A nil *Keeper is a valid no-op
// recorder: the storefront works without analytics.
type Keeper struct {
	pool *pgxpool.Pool
	log  Log

	mx  sync.Mutex
	buf []models.ClickEvent
}

const flushThreshold = 64

// NewKeeper connects to the database, applies migrations and returns
// a keeper. An empty DSN returns nil (recording disabled).
func NewKeeper(ctx context.Context, dsn func() string, log Log) *Keeper {
	addr := dsn()
	if addr == "" {
		log.Info("no database DSN, click recording disabled")
		return nil
	}

	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		log.Error("Unable to parse database DSN: ", zap.Error(err))
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		log.Error("Unable to connect to database: ", zap.Error(err))
		return nil
	}

	if err := applyMigrations(addr, log); err != nil {
		log.Error("Error while performing migration: ", zap.Error(err))
		pool.Close()
		return nil
	}

	log.Info("Connected!")

	return &Keeper{
		pool: pool,
		log:  log,
	}
}

func applyMigrations(addr string, log Log) error {
	connConfig, err := pgx.ParseConfig(addr)
	if err != nil {
		return fmt.Errorf("parse connection string: %w", err)
	}
	sqlDB := stdlib.OpenDB(*connConfig)
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Record buffers a click event. Safe on a nil keeper.
func (kp *Keeper) Record(ctx context.Context, ev models.ClickEvent) {
	if kp == nil {
		return
	}
	kp.mx.Lock()
	kp.buf = append(kp.buf, ev)
	full := len(kp.buf) >= flushThreshold
	kp.mx.Unlock()

	if full {
		if err := kp.Flush(ctx); err != nil {
			kp.log.Error("click flush failed", zap.Error(err))
		}
	}
}

// Flush writes buffered events in one transaction batch.
func (kp *Keeper) Flush(ctx context.Context) (err error) {
	if kp == nil {
		return nil
	}

	kp.mx.Lock()
	events := kp.buf
	kp.buf = nil
	kp.mx.Unlock()

	if len(events) == 0 {
		return nil
	}

	tx, err := kp.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && rollbackErr != pgx.ErrTxClosed {
				kp.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
			}
		}
	}()

	stmt := `
		INSERT INTO clicks (id, site, slug, asin, sub_tag, referrer, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(stmt, ev.ID, ev.Site, ev.Slug, ev.ASIN, ev.SubTag, ev.Referrer, ev.OccurredAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range events {
		if _, execErr := br.Exec(); execErr != nil {
			br.Close()
			err = fmt.Errorf("failed to execute batch query: %w", execErr)
			return err
		}
	}
	if closeErr := br.Close(); closeErr != nil {
		err = fmt.Errorf("failed to close batch results: %w", closeErr)
		return err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		return err
	}

	kp.log.Info("clicks flushed", zap.Int("count", len(events)))
	return nil
}

// Run flushes the buffer on an interval until ctx is done, then once
// more on the way out.
func (kp *Keeper) Run(ctx context.Context, interval time.Duration) {
	if kp == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := kp.Flush(flushCtx); err != nil {
				kp.log.Error("final click flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := kp.Flush(ctx); err != nil {
				kp.log.Error("click flush failed", zap.Error(err))
			}
		}
	}
}

// Stats aggregates clicks for a site since the given time.
func (kp *Keeper) Stats(ctx context.Context, site string, since time.Time) (*models.ClickStats, error) {
	if kp == nil {
		return nil, fmt.Errorf("click recording is disabled")
	}

	query := `
		SELECT slug, COUNT(*)
		FROM clicks
		WHERE site = $1 AND occurred_at >= $2
		GROUP BY slug
	`
	rows, err := kp.pool.Query(ctx, query, site, since)
	if err != nil {
		kp.log.Error("Failed to execute query", zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	stats := &models.ClickStats{
		BySlug: make(map[string]int),
		Since:  since,
	}
	for rows.Next() {
		var slug string
		var n int
		if err := rows.Scan(&slug, &n); err != nil {
			kp.log.Error("Failed to scan row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stats.BySlug[slug] = n
		stats.TotalClicks += n
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", rows.Err())
	}

	return stats, nil
}

// Ping reports whether the database is reachable.
func (kp *Keeper) Ping(ctx context.Context) bool {
	if kp == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := kp.pool.Ping(ctx); err != nil {
		kp.log.Error("Database ping failed", zap.Error(err))
		return false
	}
	return true
}

// Close shuts the pool down.
func (kp *Keeper) Close() bool {
	if kp == nil || kp.pool == nil {
		return false
	}
	kp.pool.Close()
	kp.log.Info("Database connection pool closed")
	return true
}
