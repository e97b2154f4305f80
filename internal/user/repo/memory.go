package repo

import (
	"context"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// MemoryUserRepo is a process-local UserStore. It backs tests and the
// development fallback when no database is reachable.
type MemoryUserRepo struct {
	mu         sync.RWMutex
	byID       map[int64]entity.User
	byEmail    map[string]int64
	byUsername map[string]int64
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:       make(map[int64]entity.User),
		byEmail:    make(map[string]int64),
		byUsername: make(map[string]int64),
	}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return &DuplicateKeyError{Field: "email"}
	}
	if _, ok := r.byUsername[u.Username]; ok {
		return &DuplicateKeyError{Field: "username"}
	}
	if _, ok := r.byID[u.ID]; ok {
		return &DuplicateKeyError{Field: "id"}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	r.byUsername[u.Username] = u.ID
	return nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string, withHash bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := r.byID[id]
	if !withHash {
		u.PasswordHash = ""
	}
	return &u, nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.PasswordHash = ""
	return &u, nil
}

func (r *MemoryUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}
