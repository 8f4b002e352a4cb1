package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *recordingTx) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (t *recordingTx) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (t *recordingTx) QueryRow(context.Context, string, ...any) Row        { return nil }

func (t *recordingTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *recordingTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type txDB struct {
	Querier
	tx *recordingTx
}

func (d *txDB) Ping(context.Context) error        { return nil }
func (d *txDB) Close() error                      { return nil }
func (d *txDB) Begin(context.Context) (Tx, error) { return d.tx, nil }

func TestInTx(t *testing.T) {
	db := &txDB{tx: &recordingTx{}}
	require.NoError(t, InTx(context.Background(), db, func(Tx) error { return nil }))
	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)

	boom := errors.New("boom")
	db = &txDB{tx: &recordingTx{}}
	err := InTx(context.Background(), db, func(Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, db.tx.committed)
	assert.True(t, db.tx.rolledBack)

	db = &txDB{tx: &recordingTx{commitErr: boom}}
	err = InTx(context.Background(), db, func(Tx) error { return nil })
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, InTx(context.Background(), nil, func(Tx) error { return nil }), ErrNoDB)
}
