package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// ErrRefreshRevoked is returned for a refresh token with no stored record.
var ErrRefreshRevoked = errors.New("refresh token revoked")

// Service composes identities, the token issuer and the refresh store into
// the register, login, refresh and logout flows. It keeps no state of its own.
type Service struct {
	users   *user.UserService
	issuer  *token.Issuer
	refresh token.RefreshStore
	logger  *zap.SugaredLogger
}

func NewService(users *user.UserService, issuer *token.Issuer, refresh token.RefreshStore, logger *zap.SugaredLogger) *Service {
	return &Service{users: users, issuer: issuer, refresh: refresh, logger: logger}
}

// Session is the outcome of a successful register or login.
type Session struct {
	User   *entity.User
	Tokens token.Pair
}

// Register creates the identity and a fresh token pair. The steps are not
// atomic: if recording the refresh token fails the identity stays created.
func (s *Service) Register(ctx context.Context, in user.NewUser) (*Session, error) {
	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, user.ErrEmailTaken
	}
	u, err := s.users.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("user registered", "userId", u.ID, "username", u.Username)
	return &Session{User: u, Tokens: pair}, nil
}

// Login authenticates by email and password and hands out a fresh pair.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("user logged in", "userId", u.ID)
	return &Session{User: u, Tokens: pair}, nil
}

// Refresh exchanges a recorded, valid refresh token of an existing user for a
// new access token. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	ok, err := s.refresh.Exists(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("lookup refresh token: %w", err)
	}
	if !ok {
		return "", time.Time{}, ErrRefreshRevoked
	}
	claims, err := s.issuer.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := s.users.FindByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", time.Time{}, fmt.Errorf("%w: user %d is gone", ErrRefreshRevoked, claims.UserID)
		}
		return "", time.Time{}, fmt.Errorf("lookup user: %w", err)
	}
	return s.issuer.IssueAccessToken(claims.UserID)
}

// Logout revokes a refresh token by removing its record.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *Service) issuePair(ctx context.Context, userID int64) (token.Pair, error) {
	access, accessExp, err := s.issuer.IssueAccessToken(userID)
	if err != nil {
		return token.Pair{}, err
	}
	refresh, refreshExp, err := s.issuer.IssueRefreshToken(userID)
	if err != nil {
		return token.Pair{}, err
	}
	if err := s.refresh.Record(ctx, refresh, userID, refreshExp); err != nil {
		return token.Pair{}, fmt.Errorf("record refresh token: %w", err)
	}
	return token.Pair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
