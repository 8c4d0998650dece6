package book

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Filter is a conjunction of optional predicates over books.
// The zero value matches every book.
type Filter struct {
	ID            *int64
	ExternalID    *string
	YearFrom      *int
	YearTo        *int
	PublishedYear *int
	// Author matches any author name containing the value, case-insensitively.
	Author string
	// Authors requires an author with each exact name (superset match).
	Authors       []string
	TitleContains string
	TitleExact    string
	Acquired      *bool
}

// ParseFilter builds a Filter from query parameters. Unknown keys are ignored.
func ParseFilter(values url.Values) (Filter, error) {
	var f Filter

	if v, ok := first(values, "id"); ok {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: id must be an integer", ErrInvalidFilter)
		}
		f.ID = &id
	}

	if v, ok := first(values, "external_id"); ok {
		f.ExternalID = &v
	}

	var err error
	if f.YearFrom, err = intParam(values, "from"); err != nil {
		return Filter{}, err
	}
	if f.YearTo, err = intParam(values, "to"); err != nil {
		return Filter{}, err
	}
	if f.PublishedYear, err = intParam(values, "published_year"); err != nil {
		return Filter{}, err
	}

	if v, ok := first(values, "author"); ok {
		f.Author = stripQuotes(v)
	}

	// A single authors value is a substring match that replaces author. The
	// list form narrows by exact name once per author.
	switch authors := values["authors"]; {
	case len(authors) == 1:
		f.Author = stripQuotes(authors[0])
	case len(authors) > 1:
		for _, a := range authors {
			f.Authors = append(f.Authors, stripQuotes(a))
		}
	}

	if v, ok := first(values, "title"); ok {
		f.TitleContains = stripQuotes(v)
	}
	if v, ok := first(values, "title__icontains"); ok {
		f.TitleContains = stripQuotes(v)
	}
	if v, ok := first(values, "title__exact"); ok {
		f.TitleExact = stripQuotes(v)
	}

	if v, ok := first(values, "acquired"); ok {
		acquired := strings.EqualFold(strings.TrimSpace(v), "true")
		f.Acquired = &acquired
	}

	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate checks that numeric predicates are in range.
func (f Filter) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.NilOrNotEmpty, validation.Min(int64(1))),
		validation.Field(&f.YearFrom, validation.Min(0)),
		validation.Field(&f.YearTo, validation.Min(0)),
		validation.Field(&f.PublishedYear, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return nil
}

// IsEmpty reports whether the filter has no predicates.
func (f Filter) IsEmpty() bool {
	return f.ID == nil && f.ExternalID == nil && f.YearFrom == nil && f.YearTo == nil &&
		f.PublishedYear == nil && f.Author == "" && len(f.Authors) == 0 &&
		f.TitleContains == "" && f.TitleExact == "" && f.Acquired == nil
}

func first(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func intParam(values url.Values, key string) (*int, error) {
	v, ok := first(values, key)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidFilter, key)
	}
	return &n, nil
}

func stripQuotes(s string) string {
	return strings.Trim(s, `"`)
}
