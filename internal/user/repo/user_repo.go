package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const (
	userColumns         = `id, username, email, role, first_name, last_name, social_links, created_at, updated_at`
	userColumnsWithHash = `id, username, email, password_hash, role, first_name, last_name, social_links, created_at, updated_at`
)

// Create inserts a new user row. The password must already be hashed.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, password_hash, role, first_name, last_name, social_links)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.SocialLinks)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if field, ok := uniqueViolation(err); ok {
			return &DuplicateKeyError{Field: field}
		}
		return err
	}
	return nil
}

// FindByEmail returns a user matched by email or ErrNotFound. The password
// hash is only selected when withHash is set.
func (r *UserRepo) FindByEmail(ctx context.Context, email string, withHash bool) (*entity.User, error) {
	cols := userColumns
	if withHash {
		cols = userColumnsWithHash
	}
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+cols+` FROM users WHERE email=$1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID fetches a user without the password hash.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email); err != nil {
		return false, err
	}
	return exists, nil
}

// uniqueViolation maps SQLSTATE 23505 to the field whose index was hit.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return "", false
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return "email", true
	case strings.Contains(pqErr.Constraint, "username"):
		return "username", true
	}
	return "id", true
}
