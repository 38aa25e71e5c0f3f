package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

// pgPool is the slice of pgxpool.Pool the store uses, narrowed so tests can
// substitute a mock.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres persists runs to two tables:
//
//	CREATE TABLE discovery_runs (
//	    id UUID PRIMARY KEY,
//	    mode TEXT NOT NULL,
//	    criteria JSONB NOT NULL,
//	    total_found INT NOT NULL,
//	    elapsed_ms BIGINT NOT NULL,
//	    created_at TIMESTAMPTZ DEFAULT NOW()
//	);
//	CREATE TABLE discovery_grants (
//	    run_id UUID REFERENCES discovery_runs(id),
//	    position INT NOT NULL,
//	    title TEXT NOT NULL,
//	    relevance_score INT NOT NULL,
//	    payload JSONB NOT NULL,
//	    PRIMARY KEY (run_id, position)
//	);
type Postgres struct {
	pool   pgPool
	logger *zap.Logger
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, dsn string, maxConns int, logger *zap.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// SaveRun inserts the run and its grants in one transaction.
func (p *Postgres) SaveRun(ctx context.Context, result grant.DiscoveryResult, criteria grant.SearchCriteria) error {
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			p.logger.Warn("rollback failed", zap.Error(rbErr))
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO discovery_runs (id, mode, criteria, total_found, elapsed_ms) VALUES ($1, $2, $3, $4, $5)`,
		result.RunID, result.Mode, criteriaJSON, result.TotalFound, result.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}

	for i, g := range result.Grants {
		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("marshal grant %d: %w", g.ID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO discovery_grants (run_id, position, title, relevance_score, payload) VALUES ($1, $2, $3, $4, $5)`,
			result.RunID, i+1, g.Title, g.RelevanceScore, payload,
		)
		if err != nil {
			return fmt.Errorf("insert grant %d for run %s: %w", g.ID, result.RunID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run %s: %w", result.RunID, err)
	}
	return nil
}

// Close shuts the connection pool down.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
