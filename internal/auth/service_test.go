package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	tokenrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/token/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

func newTestService(t *testing.T, refresh token.RefreshStore) (*Service, *userrepo.MemoryUserRepo) {
	t.Helper()
	ids, err := utilities.NewIDGenerator(2)
	require.NoError(t, err)
	users := userrepo.NewMemoryUserRepo()
	issuer := token.NewIssuer(testConfig().Token)
	return NewService(user.NewUserService(users, user.BcryptHasher{Cost: 4}, ids), issuer, refresh, zap.NewNop().Sugar()), users
}

func TestService_RegisterThenRefresh(t *testing.T) {
	ctx := context.Background()
	store := tokenrepo.NewMemoryRefreshRepo()
	svc, _ := newTestService(t, store)

	sess, err := svc.Register(ctx, user.NewUser{Email: "Flow@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "flow@example.com", sess.User.Email)
	assert.Equal(t, 1, store.Len())
	assert.True(t, sess.Tokens.RefreshExpiresAt.After(sess.Tokens.AccessExpiresAt))

	access, exp, err := svc.Refresh(ctx, sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)
	// not rotated
	assert.Equal(t, 1, store.Len())

	_, err = svc.Register(ctx, user.NewUser{Email: "flow@example.com", Password: "password123"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestService_LoginEachTimeRecordsNewToken(t *testing.T) {
	ctx := context.Background()
	store := tokenrepo.NewMemoryRefreshRepo()
	svc, _ := newTestService(t, store)

	_, err := svc.Register(ctx, user.NewUser{Email: "a@b.co", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "a@b.co", "password123")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	_, err = svc.Login(ctx, "a@b.co", "wrong-password")
	assert.ErrorIs(t, err, user.ErrBadCredentials)
	_, err = svc.Login(ctx, "nobody@b.co", "password123")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestService_LogoutRevokes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, tokenrepo.NewMemoryRefreshRepo())

	sess, err := svc.Register(ctx, user.NewUser{Email: "out@b.co", Password: "password123"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, sess.Tokens.RefreshToken))

	_, _, err = svc.Refresh(ctx, sess.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestService_RegisterIsNotAtomic(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t, failingRefreshStore{})

	_, err := svc.Register(ctx, user.NewUser{Email: "half@b.co", Password: "password123"})
	require.Error(t, err)

	exists, err := users.ExistsByEmail(ctx, "half@b.co")
	require.NoError(t, err)
	assert.True(t, exists)
}
