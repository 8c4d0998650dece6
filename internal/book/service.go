package book

import (
	"context"
	"fmt"
)

// CreateOutcome describes what Create did.
type CreateOutcome int

const (
	OutcomeCreated CreateOutcome = iota
	// OutcomeDuplicate means an identical book exists; nothing was written.
	OutcomeDuplicate
	// OutcomeUseUpdate means an identical book exists and the caller tried to
	// set acquired, which only the update operation may change.
	OutcomeUseUpdate
)

// CreateInput is a validated create request.
type CreateInput struct {
	Title         string
	Authors       []string
	Acquired      *bool
	PublishedYear int
}

// CreateResult is returned by Create.
type CreateResult struct {
	Outcome CreateOutcome
	Book    Book
}

// Service provides book-related business logic.
type Service struct {
	repo    Repository
	matcher *Matcher
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, matcher: NewMatcher()}
}

// List returns the books matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Book, error) {
	return s.repo.List(ctx, f)
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a book unless one with the same title, year and authors exists.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	var res CreateResult
	err := s.repo.InTx(ctx, func(tx Repository) error {
		if err := tx.Lock(ctx, in.Title); err != nil {
			return err
		}

		c := Candidate{Title: in.Title, PublishedYear: in.PublishedYear, Authors: in.Authors}
		match, err := s.matcher.Find(ctx, tx, c)
		if err != nil {
			return err
		}
		if match.Kind != MatchNone {
			res = CreateResult{Outcome: OutcomeDuplicate, Book: match.Book}
			if in.Acquired != nil {
				res.Outcome = OutcomeUseUpdate
			}
			return nil
		}

		match, err = s.matcher.Resolve(ctx, tx, c)
		if err != nil {
			return err
		}

		b := Book{
			Title:         in.Title,
			PublishedYear: in.PublishedYear,
		}
		if in.Acquired != nil {
			b.Acquired = *in.Acquired
		}
		if err := tx.Create(ctx, &b); err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		if err := tx.SetAuthors(ctx, b.ID, AuthorIDs(match.Authors)); err != nil {
			return fmt.Errorf("attach authors: %w", err)
		}
		created, err := tx.GetByID(ctx, b.ID)
		if err != nil {
			return err
		}
		res = CreateResult{Outcome: OutcomeCreated, Book: created}
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}
	return res, nil
}

// UpdateAcquired sets the acquired flag of a book.
func (s *Service) UpdateAcquired(ctx context.Context, id int64, acquired bool) (Book, error) {
	var out Book
	err := s.repo.InTx(ctx, func(tx Repository) error {
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		b.Acquired = acquired
		if err := tx.Update(ctx, &b); err != nil {
			return fmt.Errorf("update book %d: %w", id, err)
		}
		out = b
		return nil
	})
	return out, err
}

// Delete removes a book. Its authors are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, func(tx Repository) error {
		return tx.Delete(ctx, id)
	})
}

// ListAuthors returns all authors ordered by id.
func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.repo.ListAuthors(ctx)
}
