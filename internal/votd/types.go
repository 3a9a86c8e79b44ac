// Package votd defines core types shared across subsystems.
package votd

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// DateFormat is the calendar-day format used throughout the dataset.
const DateFormat = "2006-01-02"

// CatalogEntry is one raw "viz of the day" record as returned by the
// discovery endpoint. Immutable once fetched; entries have no identity
// beyond their position in the fetched page sequence.
type CatalogEntry struct {
	AuthorDisplayName  string `json:"authorDisplayName"`
	Title              string `json:"title"`
	ViewCount          *int64 `json:"viewCount"`
	NumberOfFavorites  *int64 `json:"numberOfFavorites"`
	PublicURL          string `json:"publicUrl"`
	CuratedImageURL    string `json:"curatedImageUrl"`
	ImageURL           string `json:"imageUrl"`
	WorkbookRepoURL    string `json:"workbookRepoUrl"`
	DefaultViewRepoURL string `json:"defaultViewRepoUrl"`
}

// Record is one persisted dataset row.
type Record struct {
	Date              string `json:"date"`
	AuthorDisplayName string `json:"authorDisplayName"`
	Title             string `json:"title"`
	ViewCount         *int64 `json:"viewCount"`
	NumberOfFavorites *int64 `json:"numberOfFavorites"`
	VizLink           string `json:"vizLink,omitempty"`
	ShapeReference    string `json:"shapeReference,omitempty"`
}

// Dataset is the ordered record sequence, newest first.
type Dataset struct {
	Records []Record
}

// HasDate reports whether any record carries the given calendar day.
func (d Dataset) HasDate(date string) bool {
	for _, r := range d.Records {
		if r.Date == date {
			return true
		}
	}
	return false
}

// MaxRef returns the numerically highest shape reference in the dataset,
// or 0 when no record carries one.
func (d Dataset) MaxRef() int {
	max := 0
	for _, r := range d.Records {
		if n, ok := ParseRef(r.ShapeReference); ok && n > max {
			max = n
		}
	}
	return max
}

// Prepend inserts a record at the head of the dataset (newest first).
func (d *Dataset) Prepend(r Record) {
	d.Records = append([]Record{r}, d.Records...)
}

// FormatRef renders a shape reference as a 3-digit zero-padded string.
func FormatRef(n int) string {
	return fmt.Sprintf("%03d", n)
}

// ParseRef parses a shape reference string. The second return value is
// false for empty or non-numeric references.
func ParseRef(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// RecordStore persists the dataset. Load returns an empty dataset when no
// prior store exists; Save replaces the stored dataset wholesale.
type RecordStore interface {
	Load(ctx context.Context) (Dataset, error)
	Save(ctx context.Context, d Dataset) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
