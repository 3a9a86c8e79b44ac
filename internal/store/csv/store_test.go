// Package csv_test tests the CSV-backed record store.
package csv_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storecsv "github.com/dashwatch/votd-archive/internal/store/csv"
	"github.com/dashwatch/votd-archive/internal/votd"
)

func intp(n int64) *int64 { return &n }

func TestNewRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := storecsv.New("  ")
	assert.Error(t, err)
}

func TestLoadMissingFileYieldsEmptyDataset(t *testing.T) {
	t.Parallel()

	s, err := storecsv.New(filepath.Join(t.TempDir(), "votd_data.csv"))
	require.NoError(t, err)

	ds, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ds.Records)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "votd_data.csv")
	s, err := storecsv.New(path)
	require.NoError(t, err)

	want := votd.Dataset{Records: []votd.Record{
		{
			Date:              "2026-08-26",
			AuthorDisplayName: "Jane Doe",
			Title:             `Sales, "quoted" & more`,
			ViewCount:         intp(1200),
			NumberOfFavorites: intp(34),
			VizLink:           "https://public.tableau.com/views/abc/xyz",
			ShapeReference:    "002",
		},
		{
			Date:              "2026-08-25",
			AuthorDisplayName: "John Roe",
			Title:             "Imageless",
			ShapeReference:    "",
		},
	}}
	require.NoError(t, s.Save(context.Background(), want))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveWritesSchemaColumnOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "votd_data.csv")
	s, err := storecsv.New(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), votd.Dataset{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	header := strings.SplitN(strings.TrimSpace(string(raw)), "\n", 2)[0]
	assert.Equal(t, "date,authorDisplayName,title,viewCount,numberOfFavorites,vizLink,shapeReference", header)
}

func TestLoadToleratesFloatCounts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "votd_data.csv")
	data := "date,authorDisplayName,title,viewCount,numberOfFavorites,vizLink,shapeReference\n" +
		"2026-08-26,Jane,Title,1234.0,,https://example.com,001\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := storecsv.New(path)
	require.NoError(t, err)
	ds, err := s.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Records, 1)
	require.NotNil(t, ds.Records[0].ViewCount)
	assert.Equal(t, int64(1234), *ds.Records[0].ViewCount)
	assert.Nil(t, ds.Records[0].NumberOfFavorites)
}

func TestLoadRejectsWrongColumnCount(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "votd_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o600))

	s, err := storecsv.New(path)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	assert.Error(t, err)
}
