package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"job-agent/internal/database"
	"job-agent/internal/session"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan dest mismatch")
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = r.vals[i].(string)
		case *[]byte:
			*d = []byte(r.vals[i].(string))
		default:
			return fmt.Errorf("unsupported scan type")
		}
	}
	return nil
}

type row struct {
	token string
	user  string
}

// fakeDB interprets the handful of statements the repository issues.
type fakeDB struct {
	mu   sync.Mutex
	rows map[string]row
}

func newFakeDB() *fakeDB { return &fakeDB{rows: map[string]row{}} }

func (db *fakeDB) Ping(context.Context) error { return nil }
func (db *fakeDB) Close() error               { return nil }

func (db *fakeDB) Begin(context.Context) (database.Tx, error) {
	return nil, fmt.Errorf("not implemented")
}

func (db *fakeDB) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (db *fakeDB) Exec(_ context.Context, query string, args ...any) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	profile := args[0].(string)
	switch {
	case strings.HasPrefix(q, "insert into client_sessions"):
		db.rows[profile] = row{token: args[1].(string), user: args[2].(string)}
		return 1, nil
	case strings.HasPrefix(q, "update client_sessions"):
		r, ok := db.rows[profile]
		if !ok {
			return 0, nil
		}
		r.user = args[1].(string)
		db.rows[profile] = r
		return 1, nil
	case strings.HasPrefix(q, "delete from client_sessions"):
		if _, ok := db.rows[profile]; !ok {
			return 0, nil
		}
		delete(db.rows, profile)
		return 1, nil
	}
	return 0, fmt.Errorf("unexpected query: %s", q)
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, args ...any) database.Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{vals: []any{r.token, r.user}}
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newFakeDB(), "work")

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, repo.Save(ctx, session.Record{Token: "tok", User: []byte(`{"id":1}`)}))
	require.NoError(t, repo.SaveUser(ctx, []byte(`{"id":1,"full_name":"Ada"}`)))

	rec, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.Token)
	assert.JSONEq(t, `{"id":1,"full_name":"Ada"}`, string(rec.User))

	require.NoError(t, repo.Clear(ctx))
	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestSessionRepository_SaveUserWithoutSession(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	repo := NewSessionRepository(db, "")

	require.NoError(t, repo.SaveUser(ctx, []byte(`{"id":1}`)))
	assert.Empty(t, db.rows)
}

func TestSessionRepository_ProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	a := NewSessionRepository(db, "a")
	b := NewSessionRepository(db, "b")

	require.NoError(t, a.Save(ctx, session.Record{Token: "ta", User: []byte(`{}`)}))

	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, session.ErrNoSession)
	require.NoError(t, b.Clear(ctx))

	rec, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ta", rec.Token)
}

func TestSessionRepository_RejectsIncompleteRecord(t *testing.T) {
	repo := NewSessionRepository(newFakeDB(), "x")
	assert.Error(t, repo.Save(context.Background(), session.Record{Token: "t"}))
}
