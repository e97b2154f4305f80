package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

const (
	usernamePrefix   = "user-"
	usernameAttempts = 5
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrEmailTaken     = errors.New("email already exists")
)

// UserService owns identity creation and password authentication.
type UserService struct {
	repo   userrepo.UserStore
	hasher PasswordHasher
	ids    *utilities.IDGenerator
	// NewUsername is swappable so collisions can be forced in tests.
	NewUsername func() string
}

func NewUserService(r userrepo.UserStore, hasher PasswordHasher, ids *utilities.IDGenerator) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 10}
	}
	return &UserService{repo: r, hasher: hasher, ids: ids, NewUsername: generateUsername}
}

func generateUsername() string {
	return usernamePrefix + utilities.RandomSuffix(12)
}

// NormalizeEmail is applied to every email before it reaches the store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser is the input for Create.
type NewUser struct {
	Email       string
	Password    string
	Role        entity.Role
	FirstName   string
	LastName    string
	SocialLinks entity.SocialLinks
}

// PrepareForWrite replaces the plaintext password with its hash. It runs on
// every write path that sets a password.
func (s *UserService) PrepareForWrite(u *entity.User, plaintext string) error {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	return nil
}

// Create registers a new identity. A username collision triggers a fresh
// username; an email collision is returned as ErrEmailTaken.
func (s *UserService) Create(ctx context.Context, in NewUser) (*entity.User, error) {
	role := in.Role
	if role == "" {
		role = entity.RoleUser
	}
	u := &entity.User{
		ID:          s.ids.Next(),
		Email:       NormalizeEmail(in.Email),
		Role:        role,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		SocialLinks: in.SocialLinks,
	}
	if err := s.PrepareForWrite(u, in.Password); err != nil {
		return nil, err
	}

	var err error
	for i := 0; i < usernameAttempts; i++ {
		u.Username = s.NewUsername()
		err = s.repo.Create(ctx, u)
		if err == nil {
			return u, nil
		}
		field, dup := userrepo.DuplicateField(err)
		if !dup {
			return nil, fmt.Errorf("create user: %w", err)
		}
		switch field {
		case "email":
			return nil, ErrEmailTaken
		case "username":
			continue
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return nil, fmt.Errorf("create user: no free username after %d attempts: %w", usernameAttempts, err)
}

func (s *UserService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, NormalizeEmail(email))
}

func (s *UserService) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Authenticate checks an email/password pair. The returned user never carries
// the password hash.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email), true)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.PasswordHash == "" || !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	u.PasswordHash = ""
	return u, nil
}
