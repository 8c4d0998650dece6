package book

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repository with sequential ids.
// Every call holds mu, so a transaction sees no concurrent writes and its
// snapshot rollback cannot discard another caller's committed change.
type MemoryRepo struct {
	mu sync.Mutex

	books        map[int64]Book
	authors      map[int64]Author
	links        map[int64][]int64
	nextBookID   int64
	nextAuthorID int64
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		books:        make(map[int64]Book),
		authors:      make(map[int64]Author),
		links:        make(map[int64][]int64),
		nextBookID:   1,
		nextAuthorID: 1,
	}
}

// locked runs fn against the unlocked view while holding mu.
func (r *MemoryRepo) locked(fn func(tx memTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(memTx{r})
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) (out []Book, err error) {
	err = r.locked(func(tx memTx) error {
		out, err = tx.List(ctx, f)
		return err
	})
	return out, err
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (b Book, err error) {
	err = r.locked(func(tx memTx) error {
		b, err = tx.GetByID(ctx, id)
		return err
	})
	return b, err
}

func (r *MemoryRepo) Create(ctx context.Context, b *Book) error {
	return r.locked(func(tx memTx) error { return tx.Create(ctx, b) })
}

func (r *MemoryRepo) Update(ctx context.Context, b *Book) error {
	return r.locked(func(tx memTx) error { return tx.Update(ctx, b) })
}

func (r *MemoryRepo) SetAuthors(ctx context.Context, bookID int64, authorIDs []int64) error {
	return r.locked(func(tx memTx) error { return tx.SetAuthors(ctx, bookID, authorIDs) })
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	return r.locked(func(tx memTx) error { return tx.Delete(ctx, id) })
}

func (r *MemoryRepo) ResolveAuthor(ctx context.Context, name string) (a Author, err error) {
	err = r.locked(func(tx memTx) error {
		a, err = tx.ResolveAuthor(ctx, name)
		return err
	})
	return a, err
}

func (r *MemoryRepo) ListAuthors(ctx context.Context) (out []Author, err error) {
	err = r.locked(func(tx memTx) error {
		out, err = tx.ListAuthors(ctx)
		return err
	})
	return out, err
}

// InTx holds mu for the whole of fn and restores the snapshot taken on
// entry when fn fails.
func (r *MemoryRepo) InTx(ctx context.Context, fn func(Repository) error) error {
	return r.locked(func(tx memTx) error {
		snap := r.snapshot()
		if err := fn(tx); err != nil {
			r.restore(snap)
			return err
		}
		return nil
	})
}

// Lock is a no-op: InTx already serializes transactions.
func (r *MemoryRepo) Lock(context.Context, string) error {
	return nil
}

// memTx is the view handed to InTx callbacks. Its methods assume mu is held;
// nested InTx joins the outer transaction.
type memTx struct {
	r *MemoryRepo
}

func (t memTx) InTx(_ context.Context, fn func(Repository) error) error {
	return fn(t)
}

func (t memTx) Lock(context.Context, string) error {
	return nil
}

func (t memTx) List(_ context.Context, f Filter) ([]Book, error) {
	ids := slices.Sorted(maps.Keys(t.r.books))
	out := make([]Book, 0, len(ids))
	for _, id := range ids {
		b := t.r.hydrate(t.r.books[id])
		if t.r.matches(b, f) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t memTx) GetByID(_ context.Context, id int64) (Book, error) {
	b, ok := t.r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return t.r.hydrate(b), nil
}

func (t memTx) Create(_ context.Context, b *Book) error {
	b.ID = t.r.nextBookID
	t.r.nextBookID++
	stored := *b
	stored.Authors = nil
	t.r.books[b.ID] = stored
	return nil
}

func (t memTx) Update(_ context.Context, b *Book) error {
	if _, ok := t.r.books[b.ID]; !ok {
		return ErrNotFound
	}
	stored := *b
	stored.Authors = nil
	t.r.books[b.ID] = stored
	return nil
}

func (t memTx) SetAuthors(_ context.Context, bookID int64, authorIDs []int64) error {
	if _, ok := t.r.books[bookID]; !ok {
		return ErrNotFound
	}
	set := make([]int64, 0, len(authorIDs))
	for _, id := range authorIDs {
		if !slices.Contains(set, id) {
			set = append(set, id)
		}
	}
	slices.Sort(set)
	t.r.links[bookID] = set
	return nil
}

func (t memTx) Delete(_ context.Context, id int64) error {
	if _, ok := t.r.books[id]; !ok {
		return ErrNotFound
	}
	delete(t.r.links, id)
	delete(t.r.books, id)
	return nil
}

func (t memTx) ResolveAuthor(_ context.Context, name string) (Author, error) {
	var found *Author
	for _, a := range t.r.authors {
		if a.Name == name && (found == nil || a.ID < found.ID) {
			found = &a
		}
	}
	if found != nil {
		return *found, nil
	}

	a := Author{ID: t.r.nextAuthorID, Name: name}
	t.r.nextAuthorID++
	t.r.authors[a.ID] = a
	return a, nil
}

func (t memTx) ListAuthors(_ context.Context) ([]Author, error) {
	out := make([]Author, 0, len(t.r.authors))
	for _, a := range t.r.authors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memSnapshot struct {
	books        map[int64]Book
	authors      map[int64]Author
	links        map[int64][]int64
	nextBookID   int64
	nextAuthorID int64
}

// snapshot and restore assume mu is held.
func (r *MemoryRepo) snapshot() memSnapshot {
	links := make(map[int64][]int64, len(r.links))
	for k, v := range r.links {
		links[k] = slices.Clone(v)
	}
	return memSnapshot{
		books:        maps.Clone(r.books),
		authors:      maps.Clone(r.authors),
		links:        links,
		nextBookID:   r.nextBookID,
		nextAuthorID: r.nextAuthorID,
	}
}

func (r *MemoryRepo) restore(s memSnapshot) {
	r.books = s.books
	r.authors = s.authors
	r.links = s.links
	r.nextBookID = s.nextBookID
	r.nextAuthorID = s.nextAuthorID
}

// hydrate fills in author names. Callers hold r.mu.
func (r *MemoryRepo) hydrate(b Book) Book {
	ids := r.links[b.ID]
	b.Authors = make([]string, 0, len(ids))
	for _, id := range ids {
		b.Authors = append(b.Authors, r.authors[id].Name)
	}
	return b
}

func (r *MemoryRepo) matches(b Book, f Filter) bool {
	if f.ID != nil && b.ID != *f.ID {
		return false
	}
	if f.ExternalID != nil && (b.ExternalID == nil || *b.ExternalID != *f.ExternalID) {
		return false
	}
	if f.YearFrom != nil && b.PublishedYear < *f.YearFrom {
		return false
	}
	if f.YearTo != nil && b.PublishedYear > *f.YearTo {
		return false
	}
	if f.PublishedYear != nil && b.PublishedYear != *f.PublishedYear {
		return false
	}
	if f.Author != "" && !slices.ContainsFunc(b.Authors, func(name string) bool {
		return containsFold(name, f.Author)
	}) {
		return false
	}
	for _, name := range f.Authors {
		if !slices.Contains(b.Authors, name) {
			return false
		}
	}
	if f.TitleContains != "" && !containsFold(b.Title, f.TitleContains) {
		return false
	}
	if f.TitleExact != "" && b.Title != f.TitleExact {
		return false
	}
	if f.Acquired != nil && b.Acquired != *f.Acquired {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
