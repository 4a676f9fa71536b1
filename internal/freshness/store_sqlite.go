package freshness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/pkg/database"
)

// SQLiteStore keeps the stocks table in a local sqlite file
// ⭐ SSOT: SQLite stocks 테이블 접근은 여기서만
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the sqlite file at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := database.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore wraps an already opened connection
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stocks (
			symbol TEXT PRIMARY KEY,
			tested_at DATETIME NOT NULL
		)
	`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, symbol string) (*contracts.CacheEntry, error) {
	var raw interface{}
	err := s.db.QueryRowContext(ctx,
		"SELECT tested_at FROM stocks WHERE symbol = ?", symbol,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	testedAt, err := parseTestedAt(raw)
	if err != nil {
		return nil, err
	}
	return &contracts.CacheEntry{Symbol: symbol, TestedAt: testedAt}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, symbol string, testedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO stocks (symbol, tested_at) VALUES (?, ?)",
		symbol, formatTestedAt(testedAt),
	)
	if isSQLiteDuplicate(err) {
		return fmt.Errorf("%w: %v", contracts.ErrDuplicateKey, err)
	}
	return err
}

func (s *SQLiteStore) Update(ctx context.Context, symbol string, testedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE stocks SET tested_at = ? WHERE symbol = ?",
		formatTestedAt(testedAt), symbol,
	)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM stocks WHERE symbol = ?", symbol)
	return err
}

func (s *SQLiteStore) All(ctx context.Context) ([]contracts.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT symbol, tested_at FROM stocks ORDER BY symbol")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]contracts.CacheEntry, 0)
	for rows.Next() {
		var symbol string
		var raw interface{}
		if err := rows.Scan(&symbol, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		testedAt, err := parseTestedAt(raw)
		if err != nil {
			return nil, fmt.Errorf("symbol %s: %w", symbol, err)
		}
		entries = append(entries, contracts.CacheEntry{Symbol: symbol, TestedAt: testedAt})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isSQLiteDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
