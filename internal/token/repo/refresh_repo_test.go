package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*RefreshRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRefreshRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestHashToken(t *testing.T) {
	h := HashToken("a.b.c")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("a.b.c"))
	assert.NotEqual(t, h, HashToken("a.b.d"))
}

func TestRefreshRepo_Record(t *testing.T) {
	r, mock := newMockRepo(t)
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`)).
		WithArgs(HashToken("tok"), int64(9), exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Record(context.Background(), "tok", 9, exp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRepo_Exists(t *testing.T) {
	r, mock := newMockRepo(t)
	q := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE token_hash=$1)`)

	mock.ExpectQuery(q).WithArgs(HashToken("tok")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := r.Exists(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(q).WithArgs(HashToken("gone")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	ok, err = r.Exists(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshRepo_Delete(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE token_hash=$1`)).
		WithArgs(HashToken("tok")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Delete(context.Background(), "tok"))
}

func TestRefreshRepo_DeleteExpired(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE expires_at < $1`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := r.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMemoryRefreshRepo(t *testing.T) {
	r := NewMemoryRefreshRepo()
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "tok", 1, time.Now().Add(time.Hour)))
	ok, err := r.Exists(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Delete(ctx, "tok"))
	ok, err = r.Exists(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}
