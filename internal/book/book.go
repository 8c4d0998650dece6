package book

import (
	"errors"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrInvalidFilter is returned when a list filter cannot be parsed or is out of range.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrValidation is returned when a create or update payload is malformed.
	ErrValidation = errors.New("validation failed")
)

// Book represents a catalogued book.
type Book struct {
	ID            int64    `json:"id"`
	ExternalID    *string  `json:"external_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Acquired      bool     `json:"acquired"`
	PublishedYear int      `json:"published_year"`
	Thumbnail     *string  `json:"thumbnail"`
}

// Author represents a book author. Names are not unique.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthorIDs returns the ids of authors in order.
func AuthorIDs(authors []Author) []int64 {
	ids := make([]int64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	return ids
}

// AuthorNames returns the names of authors in order.
func AuthorNames(authors []Author) []string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.Name
	}
	return names
}
