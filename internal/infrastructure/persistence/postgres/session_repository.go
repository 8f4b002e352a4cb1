package postgres

import (
	"context"
	"embed"
	"errors"
	"strings"

	"job-agent/internal/database"
	"job-agent/internal/database/migration"
	"job-agent/internal/session"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the client_sessions table if needed.
func Migrate(ctx context.Context, db database.DB) error {
	return migration.Runner{FS: migrations, Dir: "migrations"}.Run(ctx, db)
}

// SessionRepository keeps one session row per profile. Token and user live in
// the same row, so the pair is always written and removed together.
type SessionRepository struct {
	db      database.DB
	profile string
}

func NewSessionRepository(db database.DB, profile string) *SessionRepository {
	if strings.TrimSpace(profile) == "" {
		profile = "default"
	}
	return &SessionRepository{db: db, profile: profile}
}

func (r *SessionRepository) Load(ctx context.Context) (session.Record, error) {
	var rec session.Record
	err := r.db.QueryRow(ctx,
		`SELECT token, user_json FROM client_sessions WHERE profile = $1`,
		r.profile,
	).Scan(&rec.Token, &rec.User)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Record{}, session.ErrNoSession
		}
		return session.Record{}, err
	}
	if rec.Token == "" || len(rec.User) == 0 {
		return session.Record{}, session.ErrNoSession
	}
	return rec, nil
}

func (r *SessionRepository) Save(ctx context.Context, rec session.Record) error {
	if rec.Token == "" || len(rec.User) == 0 {
		return errors.New("incomplete session record")
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO client_sessions (profile, token, user_json)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (profile) DO UPDATE
SET token = EXCLUDED.token, user_json = EXCLUDED.user_json, updated_at = now()`,
		r.profile, rec.Token, string(rec.User),
	)
	return err
}

func (r *SessionRepository) SaveUser(ctx context.Context, user []byte) error {
	_, err := r.db.Exec(ctx,
		`UPDATE client_sessions SET user_json = $2::jsonb, updated_at = now() WHERE profile = $1`,
		r.profile, string(user),
	)
	return err
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM client_sessions WHERE profile = $1`, r.profile)
	return err
}

var _ session.Storage = (*SessionRepository)(nil)
