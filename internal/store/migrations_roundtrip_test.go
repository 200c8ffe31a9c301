package store

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("FOLIO_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("FOLIO_TEST_DATABASE_URL is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	require.NoError(t, err)
	return db
}

func TestMigrationsRoundTripPostgres(t *testing.T) {
	db := testDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fsys := Migrations("")
	require.NoError(t, ApplyMigrations(ctx, db, fsys), "apply up migrations (pass 1)")
	require.NoError(t, ApplyMigrations(ctx, db, fsys), "re-apply is a no-op")
	require.NoError(t, applyDownMigrations(ctx, db, fsys))

	_, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`)
	require.NoError(t, err)
	require.NoError(t, ApplyMigrations(ctx, db, fsys), "apply up migrations (pass 2)")
}

func TestPostgresStoreContent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db, Migrations("")))
	s := NewPostgresStore(db)

	_, err := s.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpsertPost(ctx, Post{Slug: "draft", Title: "Draft", Content: "# draft"})
	require.NoError(t, err)
	stored, err := s.UpsertPost(ctx, Post{Slug: "hello", Title: "Hello", Summary: "first", Content: `{"type":"doc"}`, BodyText: "hello world", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Slug)
	assert.False(t, stored.CreatedAt.IsZero())

	published, err := s.ListPosts(ctx, false)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "hello", published[0].Slug)

	all, err := s.ListPosts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	var matches int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM posts WHERE fts @@ plainto_tsquery('english', 'world')`).Scan(&matches))
	assert.Equal(t, 1, matches)

	require.NoError(t, s.DeletePost(ctx, "draft"))
	assert.ErrorIs(t, s.DeletePost(ctx, "draft"), ErrNotFound)

	_, err = s.GetSection(ctx, "about")
	assert.ErrorIs(t, err, ErrNotFound)
	section, err := s.UpsertSection(ctx, "about", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", section.Content)

	require.NoError(t, s.UpsertProject(ctx, Project{ID: "b", Title: "Beta", SortOrder: 2}))
	require.NoError(t, s.UpsertProject(ctx, Project{ID: "a", Title: "Alpha", Icon: "github", SortOrder: 1}))
	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "a", projects[0].ID)
}

func applyDownMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	downs, err := migrationFiles(fsys, ".down.sql")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(downs)))

	for _, name := range downs {
		sqlBytes, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		sqlText := strings.TrimSpace(string(sqlBytes))
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			return err
		}
	}
	return nil
}
