package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory credential store for tests and local runs.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[int64]User)}
}

func (r *MemoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) FindByID(ctx context.Context, id int64) (User, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, u User) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return 0, ErrEmailTaken
		}
	}

	r.nextID++
	u.ID = r.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	r.byID[u.ID] = u
	return u.ID, nil
}

// Delete removes a user. Used by tests exercising tokens that outlive their user.
func (r *MemoryRepo) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
