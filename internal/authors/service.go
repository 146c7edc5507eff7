package authors

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("author not found")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInUse means books still reference the author.
	ErrInUse = errors.New("author has books")
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// List returns every author, most recently updated first.
func (s *Service) List(ctx context.Context) (List, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return List{}, err
	}
	return List{Total: len(all), Authors: all}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Author, error) {
	if id <= 0 {
		return Author{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether an author with id is present.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create stores a new author owned by userID.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (Author, error) {
	if userID <= 0 {
		return Author{}, ErrInvalidArgument
	}
	if err := validate(in); err != nil {
		return Author{}, err
	}
	return s.repo.Create(ctx, Author{
		UserID:    userID,
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Bio:       in.Bio,
		CreatedAt: s.clock().UTC(),
	})
}

// Update replaces the author's fields and bumps updated_at.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Author, error) {
	if id <= 0 {
		return Author{}, ErrNotFound
	}
	if err := validate(in); err != nil {
		return Author{}, err
	}
	return s.repo.Update(ctx, Author{
		ID:        id,
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Bio:       in.Bio,
		UpdatedAt: s.clock().UTC(),
	})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func validate(in Input) error {
	if strings.TrimSpace(in.Firstname) == "" || strings.TrimSpace(in.Lastname) == "" {
		return ErrInvalidArgument
	}
	return nil
}
