package books

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("book not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownAuthor   = errors.New("unknown author")
)

// AuthorChecker resolves author ids (see authors.Service.Exists).
type AuthorChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo    Repository
	authors AuthorChecker
	clock   func() time.Time
}

func NewService(repo Repository, authors AuthorChecker) *Service {
	return &Service{repo: repo, authors: authors, clock: time.Now}
}

// List returns every book, most recently updated first.
func (s *Service) List(ctx context.Context) (List, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return List{}, err
	}
	return List{Total: len(all), Books: all}, nil
}

// ListByAuthor returns the author's books or ErrUnknownAuthor.
func (s *Service) ListByAuthor(ctx context.Context, authorID int64) (List, error) {
	if err := s.requireAuthor(ctx, authorID); err != nil {
		return List{}, err
	}
	all, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return List{}, err
	}
	return List{Total: len(all), Books: all}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	if id <= 0 {
		return Book{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create stores a new book owned by userID.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (Book, error) {
	if userID <= 0 {
		return Book{}, ErrInvalidArgument
	}
	if err := validate(in); err != nil {
		return Book{}, err
	}
	if err := s.requireAuthor(ctx, in.AuthorID); err != nil {
		return Book{}, err
	}
	return s.repo.Create(ctx, Book{
		UserID:    userID,
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Year:      in.Year,
		Cover:     in.Cover,
		CreatedAt: s.clock().UTC(),
	})
}

// Update replaces the book's fields and bumps updated_at. A missing book is
// reported before an unknown author.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Book, error) {
	if id <= 0 {
		return Book{}, ErrNotFound
	}
	if err := validate(in); err != nil {
		return Book{}, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Book{}, err
	}
	if err := s.requireAuthor(ctx, in.AuthorID); err != nil {
		return Book{}, err
	}
	return s.repo.Update(ctx, Book{
		ID:        id,
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Year:      in.Year,
		Cover:     in.Cover,
		UpdatedAt: s.clock().UTC(),
	})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) requireAuthor(ctx context.Context, authorID int64) error {
	if authorID <= 0 {
		return ErrUnknownAuthor
	}
	ok, err := s.authors.Exists(ctx, authorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownAuthor
	}
	return nil
}

func validate(in Input) error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrInvalidArgument
	}
	return nil
}
