package migration

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"job-agent/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/V2__second.sql": {Data: []byte("SELECT 2;")},
		"migrations/V1__first.sql":  {Data: []byte("  SELECT 1;\n")},
		"migrations/README.md":      {Data: []byte("ignored")},
	}

	migs, err := loadMigrations(fsys, "migrations")
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Equal(t, "first", migs[0].Name)
	assert.Equal(t, "SELECT 1;", migs[0].SQL)
	assert.Len(t, migs[0].Checksum, 64)
	assert.Equal(t, int64(2), migs[1].Version)
}

func TestLoadMigrations_Rejects(t *testing.T) {
	_, err := loadMigrations(fstest.MapFS{
		"m/V1__a.sql":  {Data: []byte("SELECT 1;")},
		"m/V01__b.sql": {Data: []byte("SELECT 1;")},
	}, "m")
	assert.ErrorContains(t, err, "duplicate migration version")

	_, err = loadMigrations(fstest.MapFS{"m/V1__a.sql": {Data: []byte("  ")}}, "m")
	assert.ErrorContains(t, err, "empty migration file")
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	migs, err := loadMigrations(fstest.MapFS{}, "nope")
	require.NoError(t, err)
	assert.Empty(t, migs)
}

type execCall struct {
	sql  string
	args []any
}

type fakeRows struct {
	data [][2]any
	i    int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	*dest[0].(*int64) = row[0].(int64)
	*dest[1].(*string) = row[1].(string)
	return nil
}

type fakeTx struct {
	applied    map[int64]string
	execs      []execCall
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	t.execs = append(t.execs, execCall{sql: strings.TrimSpace(sql), args: args})
	return 0, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (database.Rows, error) {
	rows := &fakeRows{}
	for v, c := range t.applied {
		rows.data = append(rows.data, [2]any{v, c})
	}
	return rows, nil
}

func (t *fakeTx) QueryRow(context.Context, string, ...any) database.Row { return nil }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) statements() []string {
	out := make([]string, 0, len(t.execs))
	for _, e := range t.execs {
		out = append(out, e.sql)
	}
	return out
}

type fakeDB struct {
	database.Querier
	tx *fakeTx
}

func (d *fakeDB) Ping(context.Context) error                 { return nil }
func (d *fakeDB) Close() error                               { return nil }
func (d *fakeDB) Begin(context.Context) (database.Tx, error) { return d.tx, nil }

func twoMigrations() fstest.MapFS {
	return fstest.MapFS{
		"m/V1__first.sql":  {Data: []byte("CREATE TABLE a (id INT);")},
		"m/V2__second.sql": {Data: []byte("CREATE TABLE b (id INT);")},
	}
}

func TestRunner_AppliesPendingUnderLock(t *testing.T) {
	fsys := twoMigrations()
	migs, err := loadMigrations(fsys, "m")
	require.NoError(t, err)

	tx := &fakeTx{applied: map[int64]string{1: migs[0].Checksum}}
	err = Runner{FS: fsys, Dir: "m"}.Run(context.Background(), &fakeDB{tx: tx})
	require.NoError(t, err)

	stmts := tx.statements()
	require.Len(t, stmts, 4)
	assert.Equal(t, "SELECT pg_advisory_xact_lock($1)", stmts[0])
	assert.Equal(t, lockKey, tx.execs[0].args[0])
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS schema_migrations")
	assert.Equal(t, "CREATE TABLE b (id INT);", stmts[2])
	assert.Contains(t, stmts[3], "INSERT INTO schema_migrations")
	assert.Equal(t, int64(2), tx.execs[3].args[0])
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestRunner_ChecksumMismatchRollsBack(t *testing.T) {
	tx := &fakeTx{applied: map[int64]string{1: "edited"}}
	err := Runner{FS: twoMigrations(), Dir: "m"}.Run(context.Background(), &fakeDB{tx: tx})
	assert.ErrorContains(t, err, "checksum mismatch")
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestRunner_NilDB(t *testing.T) {
	err := Runner{FS: twoMigrations(), Dir: "m"}.Run(context.Background(), nil)
	assert.ErrorIs(t, err, database.ErrNoDB)
}
