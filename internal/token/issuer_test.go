package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
)

func newTestIssuer() *Issuer {
	return NewIssuer(config.Token{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func TestIssuer_AccessToken_Roundtrip(t *testing.T) {
	i := newTestIssuer()

	tok, exp, err := i.IssueAccessToken(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Second)

	claims, err := i.Verify(tok, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, Subject, claims.Subject)
	assert.Equal(t, KindAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)
}

func TestIssuer_RefreshToken_Roundtrip(t *testing.T) {
	i := newTestIssuer()

	tok, exp, err := i.IssueRefreshToken(7)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Second)

	claims, err := i.Verify(tok, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	i := newTestIssuer()

	access, _, err := i.IssueAccessToken(1)
	require.NoError(t, err)
	refresh, _, err := i.IssueRefreshToken(1)
	require.NoError(t, err)

	_, err = i.Verify(access, KindRefresh)
	require.ErrorIs(t, err, ErrInvalid)
	_, err = i.Verify(refresh, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestIssuer_TokensAreUnique(t *testing.T) {
	i := newTestIssuer()
	a, _, err := i.IssueAccessToken(1)
	require.NoError(t, err)
	b, _, err := i.IssueAccessToken(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssuer_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	old := newTestIssuer().WithClock(func() time.Time { return past })

	tok, _, err := old.IssueAccessToken(1)
	require.NoError(t, err)

	_, err = newTestIssuer().Verify(tok, KindAccess)
	require.ErrorIs(t, err, ErrExpired)

	// still valid from the issuing clock's point of view
	_, err = old.Verify(tok, KindAccess)
	require.NoError(t, err)
}

func TestIssuer_Tampered(t *testing.T) {
	i := newTestIssuer()
	tok, _, err := i.IssueRefreshToken(1)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = i.Verify(tampered, KindRefresh)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = i.Verify("not-a-token", KindRefresh)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestIssuer_RejectsForeignSubjectAndAlgorithm(t *testing.T) {
	i := newTestIssuer()
	now := time.Now()

	wrongSub := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "other",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		UserID: 1,
		Type:   KindAccess,
	})
	s, err := wrongSub.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = i.Verify(s, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		UserID: 1,
		Type:   KindAccess,
	})
	s, err = hs512.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = i.Verify(s, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: Subject},
		UserID:           1,
		Type:             KindAccess,
	})
	s, err = noExp.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = i.Verify(s, KindAccess)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestWellFormed(t *testing.T) {
	i := newTestIssuer()
	tok, _, err := i.IssueRefreshToken(1)
	require.NoError(t, err)

	assert.True(t, WellFormed(tok))
	assert.False(t, WellFormed(""))
	assert.False(t, WellFormed("abc"))
	assert.False(t, WellFormed("a.b.c"))
}
