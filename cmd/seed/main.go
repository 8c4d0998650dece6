package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func main() {
	count := flag.Int("count", 100, "number of generated books on top of the fixed samples")
	seed := flag.Int64("seed", 1, "random seed for generated books")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	svc := book.NewService(book.NewPostgresRepo(pool, cfg.Database.Timeout))

	inputs := append(fixedBooks(), generateBooks(*count, rand.New(rand.NewSource(*seed)))...)
	log.Info().Int("books", len(inputs)).Msg("seeding")

	stats, err := seedBooks(ctx, svc, inputs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed books")
	}

	log.Info().Int("created", stats.created).Int("duplicates", stats.duplicates).Msg("seeding done")
}

type seedStats struct {
	created    int
	duplicates int
}

// seedBooks creates books through the catalog service so duplicates are
// detected the same way the API detects them.
func seedBooks(ctx context.Context, svc *book.Service, inputs []book.CreateInput) (seedStats, error) {
	var stats seedStats
	for i, in := range inputs {
		res, err := svc.Create(ctx, in)
		if err != nil {
			return stats, fmt.Errorf("create %q: %w", in.Title, err)
		}
		if res.Outcome == book.OutcomeCreated {
			stats.created++
		} else {
			stats.duplicates++
		}
		if (i+1)%100 == 0 {
			log.Debug().Int("done", i+1).Int("total", len(inputs)).Msg("progress")
		}
	}
	return stats, nil
}

func fixedBooks() []book.CreateInput {
	acquired := true
	return []book.CreateInput{
		{Title: "Opowiadania", Authors: []string{"Marek Nowak"}, PublishedYear: 2021},
		{Title: "Opowiadania 2", Authors: []string{"Martyna Nowak"}, PublishedYear: 2022},
		{Title: "Funny stories", Authors: []string{"Frank Joker"}, PublishedYear: 2022, Acquired: &acquired},
		{Title: "Hobbit czyli Tam i z powrotem", Authors: []string{"J. R. R. Tolkien"}, PublishedYear: 2004},
	}
}

var (
	words = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	firstNames = []string{"Anna", "Marek", "Ewa", "Piotr", "Maria", "Jan", "Olga", "Adam"}
	lastNames  = []string{"Nowak", "Kowalska", "Wiśniewski", "Lewandowska", "Zieliński", "Tokarczuk"}
)

func generateBooks(n int, rng *rand.Rand) []book.CreateInput {
	out := make([]book.CreateInput, 0, n)
	for i := 0; i < n; i++ {
		authors := make([]string, 1+rng.Intn(2))
		for j := range authors {
			authors[j] = firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
		}
		in := book.CreateInput{
			Title:         fmt.Sprintf("%s and %s", words[rng.Intn(len(words))], words[rng.Intn(len(words))]),
			Authors:       authors,
			PublishedYear: 1950 + rng.Intn(75),
		}
		if rng.Intn(3) == 0 {
			acquired := true
			in.Acquired = &acquired
		}
		out = append(out, in)
	}
	return out
}
