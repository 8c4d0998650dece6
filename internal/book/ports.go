package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book and author storage.
type Repository interface {
	// List returns books matching f ordered by id.
	List(ctx context.Context, f Filter) ([]Book, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	// Create inserts the book row and sets its ID. Authors are attached with SetAuthors.
	Create(ctx context.Context, b *Book) error
	// Update writes external_id, title, published_year, thumbnail and acquired.
	Update(ctx context.Context, b *Book) error
	// SetAuthors makes authorIDs the exact author set of the book.
	SetAuthors(ctx context.Context, bookID int64, authorIDs []int64) error
	// Delete removes the book and its author links, keeping the authors.
	Delete(ctx context.Context, id int64) error

	// ResolveAuthor returns the author with exactly this name, creating it if absent.
	ResolveAuthor(ctx context.Context, name string) (Author, error)
	ListAuthors(ctx context.Context) ([]Author, error)

	// InTx runs fn against a repository bound to a single transaction.
	InTx(ctx context.Context, fn func(Repository) error) error
	// Lock serializes transactions working on the same key until the transaction ends.
	Lock(ctx context.Context, key string) error
}
