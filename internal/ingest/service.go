package ingest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"bookstore/internal/book"
	"bookstore/internal/platform/googlebooks"

	"github.com/rs/zerolog/log"
)

// Source lists the volumes written by an author.
type Source interface {
	VolumesByAuthor(ctx context.Context, author string) ([]googlebooks.Volume, error)
}

// Service imports volumes from a Source into the book catalog and keeps a
// Run for every import.
type Service struct {
	source  Source
	books   book.Repository
	runs    Repository
	matcher *book.Matcher
}

// NewService wires an import service; runs records each import's bookkeeping.
func NewService(source Source, books book.Repository, runs Repository) *Service {
	return &Service{
		source:  source,
		books:   books,
		runs:    runs,
		matcher: book.NewMatcher(),
	}
}

// Import fetches every volume by author and reconciles it with the catalog.
// Records that fail validation or persistence are skipped; a source failure
// or a cancelled context aborts the whole import.
func (s *Service) Import(ctx context.Context, author string) (res Result, err error) {
	run := &Run{
		Author:    author,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	runID, rErr := s.runs.CreateRun(ctx, run)
	if rErr != nil {
		return Result{}, fmt.Errorf("create import run: %w", rErr)
	}
	run.ID = runID

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}

		if run.Error != "" {
			run.Status = StatusFailed
		} else {
			run.Status = StatusCompleted
		}
		if updateErr := s.runs.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
			log.Error().Err(updateErr).Str("run_id", run.ID).Msg("update import run")
		}
	}()

	volumes, err := s.source.VolumesByAuthor(ctx, author)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("%w: %w", ErrExternalSource, err)
	}
	run.Fetched = len(volumes)

	for _, v := range volumes {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		rec := recordFromVolume(v)
		outcome, err := s.importRecord(ctx, rec)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			log.Warn().Err(err).
				Str("run_id", run.ID).
				Str("external_id", rec.ExternalID).
				Str("title", rec.Title).
				Stringer("outcome", outcome).
				Msg("skipping volume")
		}

		switch outcome {
		case OutcomeCreated:
			run.Created++
		case OutcomeUpdated:
			run.Updated++
		case OutcomeSkipped:
			run.Skipped++
		}
	}

	log.Info().
		Str("run_id", run.ID).
		Str("author", author).
		Int("fetched", run.Fetched).
		Int("created", run.Created).
		Int("updated", run.Updated).
		Int("skipped", run.Skipped).
		Msg("import finished")

	return Result{
		Imported: len(volumes),
		Created:  run.Created,
		Updated:  run.Updated,
		Skipped:  run.Skipped,
		RunID:    run.ID,
	}, nil
}

// Run returns the bookkeeping of a previous import.
func (s *Service) Run(ctx context.Context, id string) (Run, error) {
	return s.runs.GetRun(ctx, id)
}

func (s *Service) importRecord(ctx context.Context, rec Record) (Outcome, error) {
	if err := rec.Validate(); err != nil {
		return OutcomeSkipped, fmt.Errorf("invalid record: %w", err)
	}
	if rec.Year.Token != "" && rec.Year.Value == 0 {
		log.Debug().Str("external_id", rec.ExternalID).Str("year_token", rec.Year.Token).Msg("non-numeric publication year stored as 0")
	}

	outcome := OutcomeSkipped
	var kind book.MatchKind
	err := s.books.InTx(ctx, func(tx book.Repository) error {
		if err := tx.Lock(ctx, rec.Title); err != nil {
			return err
		}

		match, err := s.matcher.Resolve(ctx, tx, rec.candidate())
		if err != nil {
			return err
		}
		kind = match.Kind

		switch match.Kind {
		case book.MatchExternalID:
			outcome, err = s.overwrite(ctx, tx, match, rec)
		case book.MatchNaturalKey:
			outcome, err = s.link(ctx, tx, match.Book, rec)
		default:
			outcome, err = s.create(ctx, tx, match, rec)
		}
		return err
	})
	if err != nil {
		return OutcomeSkipped, err
	}
	log.Debug().
		Str("external_id", rec.ExternalID).
		Str("title", rec.Title).
		Stringer("match", kind).
		Stringer("outcome", outcome).
		Msg("volume reconciled")
	return outcome, nil
}

// overwrite replaces every imported field of a book found by external id,
// including its author set.
func (s *Service) overwrite(ctx context.Context, tx book.Repository, match book.Match, rec Record) (Outcome, error) {
	b := match.Book
	names := book.AuthorNames(match.Authors)
	changed := !sameNames(b.Authors, names) ||
		!equalPtr(b.ExternalID, externalID(rec)) ||
		b.Title != rec.Title ||
		b.PublishedYear != rec.Year.Value ||
		!equalPtr(b.Thumbnail, rec.Thumbnail)
	if !changed {
		return OutcomeUnchanged, nil
	}

	b.ExternalID = externalID(rec)
	b.Title = rec.Title
	b.PublishedYear = rec.Year.Value
	b.Thumbnail = rec.Thumbnail
	if err := tx.Update(ctx, &b); err != nil {
		return OutcomeSkipped, fmt.Errorf("update book %d: %w", b.ID, err)
	}
	if err := tx.SetAuthors(ctx, b.ID, book.AuthorIDs(match.Authors)); err != nil {
		return OutcomeSkipped, fmt.Errorf("replace authors of book %d: %w", b.ID, err)
	}
	return OutcomeUpdated, nil
}

// link attaches the external id and thumbnail to a manually created book.
func (s *Service) link(ctx context.Context, tx book.Repository, b book.Book, rec Record) (Outcome, error) {
	if equalPtr(b.ExternalID, externalID(rec)) && equalPtr(b.Thumbnail, rec.Thumbnail) {
		return OutcomeUnchanged, nil
	}

	b.ExternalID = externalID(rec)
	b.Thumbnail = rec.Thumbnail
	if err := tx.Update(ctx, &b); err != nil {
		return OutcomeSkipped, fmt.Errorf("update book %d: %w", b.ID, err)
	}
	return OutcomeUpdated, nil
}

func (s *Service) create(ctx context.Context, tx book.Repository, match book.Match, rec Record) (Outcome, error) {
	b := book.Book{
		ExternalID:    externalID(rec),
		Title:         rec.Title,
		PublishedYear: rec.Year.Value,
		Thumbnail:     rec.Thumbnail,
	}
	if err := tx.Create(ctx, &b); err != nil {
		return OutcomeSkipped, fmt.Errorf("create book: %w", err)
	}
	if err := tx.SetAuthors(ctx, b.ID, book.AuthorIDs(match.Authors)); err != nil {
		return OutcomeSkipped, fmt.Errorf("attach authors to book %d: %w", b.ID, err)
	}
	return OutcomeCreated, nil
}

func externalID(rec Record) *string {
	if rec.ExternalID == "" {
		return nil
	}
	id := rec.ExternalID
	return &id
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameNames(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}
