package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// RefreshRepo persists refresh token records in Postgres, see
// migrations/00002_refresh_tokens.sql for the table.
type RefreshRepo struct {
	db *sqlx.DB
}

func NewRefreshRepo(db *sqlx.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

func (r *RefreshRepo) Record(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (token_hash, user_id, expires_at) VALUES ($1, $2, $3) ON CONFLICT (token_hash) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, HashToken(token), userID, expiresAt)
	return err
}

func (r *RefreshRepo) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE token_hash=$1)`
	if err := r.db.GetContext(ctx, &exists, q, HashToken(token)); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *RefreshRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash=$1`, HashToken(token))
	return err
}

// DeleteExpired removes records that expired before now and returns how many.
func (r *RefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
