package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSnapshot builds a small snapshot file and returns its path.
func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	db, err := sql.Open("libsql", "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE pages (id INTEGER PRIMARY KEY, title TEXT NOT NULL)`,
		`CREATE TABLE links (from_id INTEGER NOT NULL, to_id INTEGER NOT NULL, anchor TEXT)`,
		`INSERT INTO pages (id, title) VALUES (1, 'Physics'), (2, 'Energy'), (3, 'Matter'), (4, 'Albert Einstein'), (5, 'Leaf')`,
		`INSERT INTO links (from_id, to_id, anchor) VALUES (1, 3, 'matter'), (1, 2, 'energy'), (4, 1, NULL)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func openTestSnapshot(t *testing.T) *SnapshotRepository {
	t.Helper()
	repo, err := Open(context.Background(), writeSnapshot(t))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSnapshotRepository_Resolve(t *testing.T) {
	repo := openTestSnapshot(t)
	ctx := context.Background()

	tests := []struct {
		label string
		want  string
	}{
		{"Physics", "Physics"},
		{"physics", "Physics"},
		{"albert_einstein", "Albert Einstein"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := repo.Resolve(ctx, tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := repo.Resolve(ctx, "Chemistry")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshotRepository_Links(t *testing.T) {
	repo := openTestSnapshot(t)
	ctx := context.Background()

	links, err := repo.Links(ctx, "Physics")
	require.NoError(t, err)
	assert.Equal(t, []core.Link{
		{Target: "Matter", DisplayText: "matter"},
		{Target: "Energy", DisplayText: "energy"},
	}, links)

	links, err = repo.Links(ctx, "Albert Einstein")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "", links[0].DisplayText)

	links, err = repo.Links(ctx, "Leaf")
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)

	_, err = repo.Links(ctx, "Nowhere")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
