package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// migrationSet returns two migrations over a table unique to this test, and
// drops what they created on cleanup.
func migrationSet(t *testing.T, pool *pgxpool.Pool) (fstest.MapFS, string, []string) {
	t.Helper()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	table := "migrate_test_" + suffix
	files := []string{"001_" + suffix + ".up.sql", "002_" + suffix + ".up.sql"}

	fsys := fstest.MapFS{
		files[0]: {Data: []byte("CREATE TABLE " + table + " (id INT PRIMARY KEY)")},
		files[1]: {Data: []byte("ALTER TABLE " + table + " ADD COLUMN note TEXT")},
	}
	fsys["001_"+suffix+".down.sql"] = &fstest.MapFile{Data: []byte("DROP TABLE " + table)}

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS "+table)
		_, _ = pool.Exec(ctx, `DELETE FROM schema_migrations WHERE filename LIKE $1`, "%"+suffix+"%")
	})
	return fsys, table, files
}

func recorded(t *testing.T, pool *pgxpool.Pool, file string) bool {
	t.Helper()
	var ok bool
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`, file).Scan(&ok))
	return ok
}

func TestRunMigrationsRerunIsNoop(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	fsys, table, files := migrationSet(t, pool)

	applied, err := RunMigrations(ctx, pool, fsys)
	require.NoError(t, err)
	assert.Equal(t, files, applied)

	_, err = pool.Exec(ctx, "INSERT INTO "+table+" (id, note) VALUES (1, 'kept')")
	require.NoError(t, err)

	applied, err = RunMigrations(ctx, pool, fsys)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var note string
	require.NoError(t, pool.QueryRow(ctx, "SELECT note FROM "+table+" WHERE id = 1").Scan(&note))
	assert.Equal(t, "kept", note)
}

func TestRunMigrationsFailureLeavesNothingRecorded(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	fsys, table, files := migrationSet(t, pool)

	// The second statement fails, so the table created by the first must
	// roll back with it.
	fsys[files[1]] = &fstest.MapFile{Data: []byte(
		"CREATE TABLE " + table + "_extra (id INT); SELECT no_such_function()")}

	applied, err := RunMigrations(ctx, pool, fsys)
	require.Error(t, err)
	assert.Equal(t, files[:1], applied)
	assert.True(t, recorded(t, pool, files[0]))
	assert.False(t, recorded(t, pool, files[1]))

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_tables WHERE tablename = $1)`, table+"_extra").Scan(&exists))
	assert.False(t, exists)
}

func TestUpFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.up.sql":   {},
		"001_a.up.sql":   {},
		"001_a.down.sql": {},
		"README.md":      {},
		"sub/003.up.sql": {},
	}

	files, err := upFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.up.sql", "002_b.up.sql"}, files)
}
