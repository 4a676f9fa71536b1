package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/moat/pkg/config"
)

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "moat.db")

	db, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file should be created")
}

func TestBuildConnectionString(t *testing.T) {
	assert.Equal(t,
		"/tmp/a.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		buildConnectionString("/tmp/a.db"))
	assert.Contains(t, buildConnectionString("file:x?mode=memory"), "file:x?mode=memory&_pragma=")
}

func TestNewPostgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := NewPostgres(context.Background(), config.StoreConfig{URL: url, MaxConns: 2, MinConns: 1})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewPostgres_InvalidURL(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.StoreConfig{URL: "::not a url::"})
	assert.Error(t, err)
}
