package cache

import (
	"context"
	"testing"

	"job-agent/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_UnavailableDegrades(t *testing.T) {
	ctx := context.Background()
	r := NewRedisWithClient(nil, "", nil)

	_, err := r.Load(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	assert.ErrorIs(t, r.Save(ctx, session.Record{Token: "t", User: []byte("{}")}), errUnavailable)
	assert.ErrorIs(t, r.SaveUser(ctx, []byte("{}")), errUnavailable)
	assert.NoError(t, r.Clear(ctx))
	assert.ErrorIs(t, r.Ping(ctx), errUnavailable)
	assert.NoError(t, r.Close())
}

func TestRedis_KeysAreScopedByProfile(t *testing.T) {
	r := NewRedisWithClient(nil, "work", nil)
	assert.Equal(t, "session:work:token", r.tokenKey())
	assert.Equal(t, "session:work:user", r.userKey())

	assert.Equal(t, "session:default:token", NewRedisWithClient(nil, " ", nil).tokenKey())
}
