package ingest

import (
	"strings"

	"bookstore/internal/book"
	"bookstore/internal/platform/googlebooks"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Record is a volume normalised into catalog fields.
type Record struct {
	ExternalID string
	Title      string
	Authors    []string
	Thumbnail  *string
	Year       Year
}

func recordFromVolume(v googlebooks.Volume) Record {
	authors := make([]string, 0, len(v.VolumeInfo.Authors))
	for _, a := range v.VolumeInfo.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return Record{
		ExternalID: v.ID,
		Title:      v.VolumeInfo.Title,
		Authors:    authors,
		Thumbnail:  v.Thumbnail(),
		Year:       ParseYear(v.VolumeInfo.PublishedDate),
	}
}

func (r Record) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ExternalID, validation.Length(0, 200)),
		validation.Field(&r.Authors, validation.Each(validation.Length(1, 100))),
	)
}

func (r Record) candidate() book.Candidate {
	return book.Candidate{
		ExternalID:    r.ExternalID,
		Title:         r.Title,
		PublishedYear: r.Year.Value,
		Authors:       r.Authors,
	}
}
