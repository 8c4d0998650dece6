package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepo struct {
	pool    *pgxpool.Pool
	db      querier
	timeout time.Duration
	inTx    bool
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{pool: db, db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) InTx(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&PostgresRepo{pool: r.pool, db: tx, timeout: r.timeout, inTx: true})
	})
}

func (r *PostgresRepo) Lock(ctx context.Context, key string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, "SELECT pg_advisory_xact_lock(hashtext($1))", key)
	return err
}

// buildWhere turns a Filter into a WHERE clause over books aliased as b.
func buildWhere(f Filter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	add := func(clause string, arg any) {
		clauses = append(clauses, fmt.Sprintf(clause, argn))
		args = append(args, arg)
		argn++
	}

	if f.ID != nil {
		add("b.id = $%d", *f.ID)
	}
	if f.ExternalID != nil {
		add("b.external_id = $%d", *f.ExternalID)
	}
	if f.YearFrom != nil {
		add("b.published_year >= $%d", *f.YearFrom)
	}
	if f.YearTo != nil {
		add("b.published_year <= $%d", *f.YearTo)
	}
	if f.PublishedYear != nil {
		add("b.published_year = $%d", *f.PublishedYear)
	}
	if f.Author != "" {
		add(`EXISTS (SELECT 1 FROM book_authors ba JOIN authors a ON a.id = ba.author_id
			WHERE ba.book_id = b.id AND a.name ILIKE $%d)`, "%"+escapeLike(f.Author)+"%")
	}
	for _, name := range f.Authors {
		add(`EXISTS (SELECT 1 FROM book_authors ba JOIN authors a ON a.id = ba.author_id
			WHERE ba.book_id = b.id AND a.name = $%d)`, name)
	}
	if f.TitleContains != "" {
		add("b.title ILIKE $%d", "%"+escapeLike(f.TitleContains)+"%")
	}
	if f.TitleExact != "" {
		add("b.title = $%d", f.TitleExact)
	}
	if f.Acquired != nil {
		add("b.acquired = $%d", *f.Acquired)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Book, error) {
	where, args := buildWhere(f)
	dataSQL := fmt.Sprintf(`
		SELECT b.id, b.external_id, b.title, b.acquired, b.published_year, b.thumbnail
		FROM books b
		%s
		ORDER BY b.id ASC`, where)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, dataSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.ExternalID, &b.Title, &b.Acquired, &b.PublishedYear, &b.Thumbnail); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadAuthors(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepo) loadAuthors(ctx context.Context, books []Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]int64, len(books))
	index := make(map[int64]int, len(books))
	for i := range books {
		ids[i] = books[i].ID
		index[books[i].ID] = i
		books[i].Authors = []string{}
	}

	const query = `
		SELECT ba.book_id, a.name
		FROM book_authors ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ANY($1)
		ORDER BY ba.book_id, a.id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, ids)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID int64
		var name string
		if err := rows.Scan(&bookID, &name); err != nil {
			return err
		}
		i := index[bookID]
		books[i].Authors = append(books[i].Authors, name)
	}
	return rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	const query = `
		SELECT id, external_id, title, acquired, published_year, thumbnail
		FROM books
		WHERE id = $1`

	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&b.ID, &b.ExternalID, &b.Title, &b.Acquired, &b.PublishedYear, &b.Thumbnail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}

	books := []Book{b}
	if err := r.loadAuthors(ctx, books); err != nil {
		return Book{}, err
	}
	return books[0], nil
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const sql = `
		INSERT INTO books (external_id, title, acquired, published_year, thumbnail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, sql,
		b.ExternalID, b.Title, b.Acquired, b.PublishedYear, b.Thumbnail,
	).Scan(&b.ID)
}

func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const sql = `
		UPDATE books SET
			external_id = $1,
			title = $2,
			acquired = $3,
			published_year = $4,
			thumbnail = $5,
			updated_at = now()
		WHERE id = $6`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, sql,
		b.ExternalID, b.Title, b.Acquired, b.PublishedYear, b.Thumbnail, b.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAuthors diffs the current links against authorIDs and applies only the changes.
func (r *PostgresRepo) SetAuthors(ctx context.Context, bookID int64, authorIDs []int64) error {
	return r.InTx(ctx, func(repo Repository) error {
		tx := repo.(*PostgresRepo)
		timeoutCtx, cancel := tx.withTimeout(ctx)
		defer cancel()

		rows, err := tx.db.Query(timeoutCtx, "SELECT author_id FROM book_authors WHERE book_id = $1", bookID)
		if err != nil {
			return err
		}
		current, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}

		toAdd, toRemove := diffIDs(current, authorIDs)
		if len(toRemove) > 0 {
			const del = "DELETE FROM book_authors WHERE book_id = $1 AND author_id = ANY($2)"
			if _, err := tx.db.Exec(timeoutCtx, del, bookID, toRemove); err != nil {
				return fmt.Errorf("unlink authors: %w", err)
			}
		}
		if len(toAdd) > 0 {
			const ins = `
				INSERT INTO book_authors (book_id, author_id)
				SELECT $1, unnest($2::bigint[])
				ON CONFLICT DO NOTHING`
			if _, err := tx.db.Exec(timeoutCtx, ins, bookID, toAdd); err != nil {
				return fmt.Errorf("link authors: %w", err)
			}
		}
		return nil
	})
}

// diffIDs returns the ids in want but not in have, and in have but not in want.
func diffIDs(have, want []int64) (toAdd, toRemove []int64) {
	haveSet := make(map[int64]bool, len(have))
	for _, id := range have {
		haveSet[id] = true
	}
	wantSet := make(map[int64]bool, len(want))
	for _, id := range want {
		if !wantSet[id] && !haveSet[id] {
			toAdd = append(toAdd, id)
		}
		wantSet[id] = true
	}
	for _, id := range have {
		if !wantSet[id] {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	return r.InTx(ctx, func(repo Repository) error {
		tx := repo.(*PostgresRepo)
		timeoutCtx, cancel := tx.withTimeout(ctx)
		defer cancel()

		if _, err := tx.db.Exec(timeoutCtx, "DELETE FROM book_authors WHERE book_id = $1", id); err != nil {
			return fmt.Errorf("unlink authors: %w", err)
		}
		tag, err := tx.db.Exec(timeoutCtx, "DELETE FROM books WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PostgresRepo) ResolveAuthor(ctx context.Context, name string) (Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	a := Author{Name: name}
	err := r.db.QueryRow(timeoutCtx, "SELECT id FROM authors WHERE name = $1 ORDER BY id LIMIT 1", name).Scan(&a.ID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Author{}, err
	}

	if err := r.db.QueryRow(timeoutCtx, "INSERT INTO authors (name) VALUES ($1) RETURNING id", name).Scan(&a.ID); err != nil {
		return Author{}, fmt.Errorf("insert author: %w", err)
	}
	return a, nil
}

func (r *PostgresRepo) ListAuthors(ctx context.Context) ([]Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, "SELECT id, name FROM authors ORDER BY id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Author])
}
