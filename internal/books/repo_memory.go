package books

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory book store for tests and local runs.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]Book
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[int64]Book)}
}

func (r *MemoryRepo) filter(keep func(Book) bool) []Book {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Book{}
	for _, b := range r.byID {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *MemoryRepo) List(ctx context.Context) ([]Book, error) {
	_ = ctx
	return r.filter(func(Book) bool { return true }), nil
}

func (r *MemoryRepo) ListByAuthor(ctx context.Context, authorID int64) ([]Book, error) {
	_ = ctx
	return r.filter(func(b Book) bool { return b.AuthorID == authorID }), nil
}

// HasAuthor reports whether any book references authorID. It backs
// authors.MemoryRepo.InUse in tests.
func (r *MemoryRepo) HasAuthor(authorID int64) bool {
	return len(r.filter(func(b Book) bool { return b.AuthorID == authorID })) > 0
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Book, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byID[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepo) Create(ctx context.Context, b Book) (Book, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	b.ID = r.nextID
	b.UpdatedAt = b.CreatedAt
	r.byID[b.ID] = b
	return b, nil
}

func (r *MemoryRepo) Update(ctx context.Context, b Book) (Book, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[b.ID]
	if !ok {
		return Book{}, ErrNotFound
	}
	cur.AuthorID = b.AuthorID
	cur.Title = b.Title
	cur.Year = b.Year
	cur.Cover = b.Cover
	cur.UpdatedAt = b.UpdatedAt
	r.byID[b.ID] = cur
	return cur, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
