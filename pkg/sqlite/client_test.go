package sqlite

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPragmas(t *testing.T) {
	got := pragmas(ClientConfig{Path: "/tmp/x.db", BusyTimeout: 2 * time.Second, ForeignKeys: true, JournalWAL: true})
	assert.Equal(t, []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 2000",
		"PRAGMA journal_mode = WAL",
	}, got)

	// WAL is skipped for in-memory databases
	got = pragmas(ClientConfig{Path: MemoryPath, JournalWAL: true})
	assert.Empty(t, got)
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", UpSection(content))
	assert.Equal(t, "CREATE TABLE b (id INTEGER);", UpSection("CREATE TABLE b (id INTEGER);"))
}

func TestNewClient_EmptyPath(t *testing.T) {
	_, err := NewClient(WithPath("  "))
	require.Error(t, err)
}

func TestMigrate_AppliesOnce(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	defer c.Close()

	fsys := fstest.MapFS{
		"m/001_items.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items (name TEXT NOT NULL UNIQUE);\n-- +migrate Down\nDROP TABLE items;\n")},
		"m/README.md":     {Data: []byte("ignored")},
	}
	ctx := context.Background()
	require.NoError(t, c.Migrate(ctx, fsys, "m"))
	require.NoError(t, c.Migrate(ctx, fsys, "m"))

	_, err = c.DB().ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`)
	require.NoError(t, err)
	_, err = c.DB().ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`)
	require.Error(t, err)
	assert.True(t, IsConstraintError(err))
	assert.False(t, IsConstraintError(errors.New("plain")))
	assert.NoError(t, c.Health(ctx))
}
