package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// Kind tells access and refresh tokens apart. Each kind has its own secret.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Subject is the fixed "sub" claim naming the API audience.
const Subject = "accessApi"

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("invalid token")
)

// Claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId,string"`
	Type   Kind  `json:"typ"`
}

// Issuer signs and verifies HS256 access and refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(cfg config.Token) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	c := *i
	c.now = now
	return &c
}

func (i *Issuer) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return i.refreshTTL
	}
	return i.accessTTL
}

func (i *Issuer) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return i.refreshSecret
	}
	return i.accessSecret
}

// IssueAccessToken signs a short-lived token for userID.
func (i *Issuer) IssueAccessToken(userID int64) (string, time.Time, error) {
	return i.issue(KindAccess, userID)
}

// IssueRefreshToken signs a long-lived token for userID with the refresh secret.
func (i *Issuer) IssueRefreshToken(userID int64) (string, time.Time, error) {
	return i.issue(KindRefresh, userID)
}

func (i *Issuer) issue(kind Kind, userID int64) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.TTL(kind))
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utilities.NewKSUID(),
			Subject:   Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Type:   kind,
	})
	signed, err := t.SignedString(i.secret(kind))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// Verify checks signature, subject, expiry and kind. Expired tokens yield
// ErrExpired; anything else wrong yields ErrInvalid.
func (i *Issuer) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(Subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: token type mismatch: %s", ErrInvalid, claims.Type)
	}
	return claims, nil
}

// WellFormed reports whether s is syntactically a JWT. Nothing is verified.
func WellFormed(s string) bool {
	_, _, err := jwt.NewParser().ParseUnverified(s, jwt.MapClaims{})
	return err == nil
}
