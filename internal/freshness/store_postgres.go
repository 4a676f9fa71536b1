package freshness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/config"
	"github.com/wonny/moat/pkg/database"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps the stocks table in PostgreSQL, for deployments where
// several hosts share one freshness cache
// ⭐ SSOT: PostgreSQL stocks 테이블 접근은 여기서만
type PostgresStore struct {
	db   *database.Postgres
	pool *pgxpool.Pool
}

// OpenPostgres connects to DATABASE_URL
func OpenPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, pool: db.Pool}, nil
}

func (s *PostgresStore) CreateTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS stocks (
			symbol TEXT PRIMARY KEY,
			tested_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, symbol string) (*contracts.CacheEntry, error) {
	var testedAt time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT tested_at FROM stocks WHERE symbol = $1", symbol,
	).Scan(&testedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contracts.CacheEntry{Symbol: symbol, TestedAt: testedAt.UTC()}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, symbol string, testedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO stocks (symbol, tested_at) VALUES ($1, $2)",
		symbol, testedAt.UTC(),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %v", contracts.ErrDuplicateKey, err)
	}
	return err
}

func (s *PostgresStore) Update(ctx context.Context, symbol string, testedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE stocks SET tested_at = $1 WHERE symbol = $2",
		testedAt.UTC(), symbol,
	)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, symbol string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM stocks WHERE symbol = $1", symbol)
	return err
}

func (s *PostgresStore) All(ctx context.Context) ([]contracts.CacheEntry, error) {
	rows, err := s.pool.Query(ctx, "SELECT symbol, tested_at FROM stocks ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	entries := make([]contracts.CacheEntry, 0)
	for rows.Next() {
		var e contracts.CacheEntry
		if err := rows.Scan(&e.Symbol, &e.TestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.TestedAt = e.TestedAt.UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
