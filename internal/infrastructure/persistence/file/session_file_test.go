package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"job-agent/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	f := NewSessionFile(path, "")

	_, err := f.Load(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, f.Save(ctx, session.Record{Token: "tok", User: []byte(`{"id":1,"email":"a@b.c"}`)}))

	rec, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.Token)
	assert.JSONEq(t, `{"id":1,"email":"a@b.c"}`, string(rec.User))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, f.Clear(ctx))
	_, err = f.Load(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
	require.NoError(t, f.Clear(ctx))
}

func TestSessionFile_SaveUserNeedsToken(t *testing.T) {
	ctx := context.Background()
	f := NewSessionFile(filepath.Join(t.TempDir(), "session.json"), "")

	require.NoError(t, f.SaveUser(ctx, []byte(`{"id":1}`)))
	_, err := f.Load(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, f.Save(ctx, session.Record{Token: "tok", User: []byte(`{"id":1}`)}))
	require.NoError(t, f.SaveUser(ctx, []byte(`{"id":1,"full_name":"Ana"}`)))

	rec, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.Token)
	assert.JSONEq(t, `{"id":1,"full_name":"Ana"}`, string(rec.User))
}

func TestSessionFile_Sealed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, NewSessionFile(path, "s3cret").Save(ctx, session.Record{Token: "tok", User: []byte(`{"id":1}`)}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok")

	rec, err := NewSessionFile(path, "s3cret").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.Token)

	_, err = NewSessionFile(path, "other").Load(ctx)
	assert.Error(t, err)
}

func TestSessionFile_HalfPairIsNoSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"tok"}`), 0o600))

	_, err := NewSessionFile(path, "").Load(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
}
