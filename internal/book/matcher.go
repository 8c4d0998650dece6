package book

import (
	"context"
	"fmt"
)

// MatchKind says how an existing book was found.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExternalID
	MatchNaturalKey
)

func (k MatchKind) String() string {
	switch k {
	case MatchExternalID:
		return "external_id"
	case MatchNaturalKey:
		return "natural_key"
	default:
		return "none"
	}
}

// Candidate holds the identifying fields of a book that may already exist.
type Candidate struct {
	ExternalID    string
	Title         string
	PublishedYear int
	Authors       []string
}

// Match is the result of matching a Candidate.
type Match struct {
	Kind MatchKind
	Book Book
	// Authors are the resolved author rows, in candidate order. Only set by Resolve.
	Authors []Author
}

// Matcher finds existing books equivalent to a candidate.
// An external id match is authoritative; otherwise title, year and a
// superset of the candidate's author names must all agree. Ties go to the
// lowest id.
type Matcher struct{}

// NewMatcher returns a Matcher. It holds no state and is safe for concurrent use.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Resolve creates missing authors for the candidate and then matches it.
// Authors are created even when the book turns out to exist.
func (m *Matcher) Resolve(ctx context.Context, repo Repository, c Candidate) (Match, error) {
	authors := make([]Author, 0, len(c.Authors))
	seen := make(map[string]bool, len(c.Authors))
	for _, name := range c.Authors {
		if seen[name] {
			continue
		}
		seen[name] = true
		a, err := repo.ResolveAuthor(ctx, name)
		if err != nil {
			return Match{}, fmt.Errorf("resolve author %q: %w", name, err)
		}
		authors = append(authors, a)
	}

	match, err := m.Find(ctx, repo, c)
	if err != nil {
		return Match{}, err
	}
	match.Authors = authors
	return match, nil
}

// Find matches the candidate without writing anything.
func (m *Matcher) Find(ctx context.Context, repo Repository, c Candidate) (Match, error) {
	if c.ExternalID != "" {
		externalID := c.ExternalID
		b, ok, err := firstBook(ctx, repo, Filter{ExternalID: &externalID})
		if err != nil {
			return Match{}, fmt.Errorf("match by external id: %w", err)
		}
		if ok {
			return Match{Kind: MatchExternalID, Book: b}, nil
		}
	}

	year := c.PublishedYear
	b, ok, err := firstBook(ctx, repo, Filter{
		TitleExact:    c.Title,
		PublishedYear: &year,
		Authors:       c.Authors,
	})
	if err != nil {
		return Match{}, fmt.Errorf("match by natural key: %w", err)
	}
	if ok {
		return Match{Kind: MatchNaturalKey, Book: b}, nil
	}
	return Match{Kind: MatchNone}, nil
}

func firstBook(ctx context.Context, repo Repository, f Filter) (Book, bool, error) {
	books, err := repo.List(ctx, f)
	if err != nil {
		return Book{}, false, err
	}
	if len(books) == 0 {
		return Book{}, false, nil
	}
	return books[0], true, nil
}
