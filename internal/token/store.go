package token

import (
	"context"
	"time"
)

// RefreshStore keeps a durable record per issued refresh token. A token
// without a record is revoked regardless of its signature or expiry.
type RefreshStore interface {
	Record(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	Exists(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pair is the token pair handed out on register and login.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
