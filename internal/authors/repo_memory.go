package authors

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory author store for tests and local runs.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]Author

	// InUse, when set, stands in for the books.author_id foreign key.
	InUse func(authorID int64) bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[int64]Author)}
}

func (r *MemoryRepo) List(ctx context.Context) ([]Author, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Author, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Author, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return Author{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) Create(ctx context.Context, a Author) (Author, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	a.ID = r.nextID
	a.UpdatedAt = a.CreatedAt
	r.byID[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) Update(ctx context.Context, a Author) (Author, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return Author{}, ErrNotFound
	}
	cur.Firstname = a.Firstname
	cur.Lastname = a.Lastname
	cur.Bio = a.Bio
	cur.UpdatedAt = a.UpdatedAt
	r.byID[a.ID] = cur
	return cur, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	if r.InUse != nil && r.InUse(id) {
		return ErrInUse
	}
	delete(r.byID, id)
	return nil
}
