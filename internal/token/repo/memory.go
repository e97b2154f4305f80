package repo

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	userID    int64
	expiresAt time.Time
}

// MemoryRefreshRepo is a process-local refresh store for tests and the
// development fallback.
type MemoryRefreshRepo struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

func NewMemoryRefreshRepo() *MemoryRefreshRepo {
	return &MemoryRefreshRepo{records: make(map[string]memoryRecord)}
}

func (r *MemoryRefreshRepo) Record(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[HashToken(token)] = memoryRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *MemoryRefreshRepo) Exists(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[HashToken(token)]
	return ok, nil
}

func (r *MemoryRefreshRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, HashToken(token))
	return nil
}

func (r *MemoryRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, rec := range r.records {
		if rec.expiresAt.Before(now) {
			delete(r.records, k)
			n++
		}
	}
	return n, nil
}

// Len is the number of live records.
func (r *MemoryRefreshRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
