// Package csv implements the record store as a CSV file on disk.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dashwatch/votd-archive/internal/votd"
)

// columns is the tabular schema contract, in order.
var columns = []string{
	"date",
	"authorDisplayName",
	"title",
	"viewCount",
	"numberOfFavorites",
	"vizLink",
	"shapeReference",
}

// Store reads and rewrites the dataset as one CSV file.
type Store struct {
	path string
}

// New creates a CSV-backed store at path. The file itself may not exist
// yet; Load treats that as an empty dataset.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("csv path is required")
	}
	return &Store{path: path}, nil
}

// Load reads the full dataset. A missing file yields an empty dataset.
func (s *Store) Load(_ context.Context) (votd.Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return votd.Dataset{}, nil
		}
		return votd.Dataset{}, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return votd.Dataset{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return votd.Dataset{}, nil
	}

	header := rows[0]
	if len(header) != len(columns) {
		return votd.Dataset{}, fmt.Errorf("%s: expected %d columns, found %d", s.path, len(columns), len(header))
	}

	ds := votd.Dataset{Records: make([]votd.Record, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		ds.Records = append(ds.Records, votd.Record{
			Date:              row[0],
			AuthorDisplayName: row[1],
			Title:             row[2],
			ViewCount:         parseCount(row[3]),
			NumberOfFavorites: parseCount(row[4]),
			VizLink:           row[5],
			ShapeReference:    row[6],
		})
	}
	return ds, nil
}

// Save rewrites the whole file. The dataset lands via rename, so a failed
// save leaves the previous file intact.
func (s *Store) Save(_ context.Context, d votd.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".votd-*.csv")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range d.Records {
		row := []string{
			rec.Date,
			rec.AuthorDisplayName,
			rec.Title,
			formatCount(rec.ViewCount),
			formatCount(rec.NumberOfFavorites),
			rec.VizLink,
			rec.ShapeReference,
		}
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write row %s: %w", rec.Date, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func parseCount(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	// Earlier exports wrote nullable counts as floats ("1234.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int64(f)
		return &n
	}
	return nil
}

func formatCount(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
