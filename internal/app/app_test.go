package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashwatch/votd-archive/internal/config"
	storecsv "github.com/dashwatch/votd-archive/internal/store/csv"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeFeed serves a catalog of entries plus their preview images.
func fakeFeed(t *testing.T, entries []string) *httptest.Server {
	t.Helper()
	body := tinyPNG(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/viz-of-the-day", func(w http.ResponseWriter, r *http.Request) {
		var page, limit int
		fmt.Sscan(r.URL.Query().Get("page"), &page)
		fmt.Sscan(r.URL.Query().Get("limit"), &limit)
		start := page * limit
		end := start + limit
		if start > len(entries) {
			start = len(entries)
		}
		if end > len(entries) {
			end = len(entries)
		}
		fmt.Fprintf(w, `{"vizzes":[%s]}`, join(entries[start:end]))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	root := t.TempDir()
	return config.Config{
		API: config.APIConfig{
			BaseURL:        baseURL + "/viz-of-the-day",
			PageSize:       2,
			TimeoutSeconds: 5,
		},
		Download: config.DownloadConfig{
			TimeoutSeconds:     5,
			MaxRetries:         1,
			BackoffStepSeconds: 1,
			Concurrency:        3,
		},
		Images: config.ImagesConfig{
			LocalDir:  filepath.Join(root, "local"),
			ShapesDir: filepath.Join(root, "shapes"),
			Width:     16,
			Height:    16,
		},
		Store: config.StoreConfig{
			Backend: "csv",
			CSVPath: filepath.Join(root, "votd_data.csv"),
		},
		Resync: config.ResyncConfig{Limit: 50},
	}
}

func entryJSON(srvURL, title string, withImage bool) string {
	img := ""
	if withImage {
		img = fmt.Sprintf(`,"imageUrl":"%s/img/x.png"`, srvURL)
	}
	return fmt.Sprintf(`{"title":"%s","authorDisplayName":"Jane &amp; Co","viewCount":10%s}`, title, img)
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	a.clock = fakeClock{now: time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)}
	return a
}

func TestRunUpdate(t *testing.T) {
	t.Parallel()

	imgSrv := fakeFeed(t, nil)
	entries := []string{entryJSON(imgSrv.URL, "Morning Viz", true)}
	feed := fakeFeed(t, entries)

	cfg := testConfig(t, feed.URL)
	a := newTestApp(t, cfg)

	summary, err := a.RunUpdate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Fetched: 1, ImagesSucceeded: 1, RecordsSaved: 1}, summary)

	// Image landed in the local root under the first reference.
	_, statErr := os.Stat(filepath.Join(cfg.Images.LocalDir, "001.png"))
	assert.NoError(t, statErr)

	store, err := storecsv.New(cfg.Store.CSVPath)
	require.NoError(t, err)
	ds, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "2026-08-26", ds.Records[0].Date)
	assert.Equal(t, "Jane & Co", ds.Records[0].AuthorDisplayName)
	assert.Equal(t, "001", ds.Records[0].ShapeReference)

	// Second run on the same day is a no-op.
	again, err := a.RunUpdate(context.Background())
	require.NoError(t, err)
	assert.True(t, again.UpToDate)

	ds2, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ds, ds2)
}

func TestRunResyncRebuildsDatasetAndImageRoots(t *testing.T) {
	t.Parallel()

	imgSrv := fakeFeed(t, nil)
	entries := []string{
		entryJSON(imgSrv.URL, "Newest", true),
		entryJSON(imgSrv.URL, "Middle", true),
		entryJSON(imgSrv.URL, "Imageless", false),
		entryJSON(imgSrv.URL, "Oldest", true),
	}
	feed := fakeFeed(t, entries)

	cfg := testConfig(t, feed.URL)
	a := newTestApp(t, cfg)

	// A stale file from an earlier run must be wiped by the resync.
	require.NoError(t, os.MkdirAll(cfg.Images.LocalDir, 0o750))
	stale := filepath.Join(cfg.Images.LocalDir, "999.png")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	summary, err := a.RunResync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Fetched: 4, ImagesSucceeded: 3, RecordsSaved: 4}, summary)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr), "stale images must be cleared")

	for _, ref := range []string{"004", "003", "001"} {
		_, err := os.Stat(filepath.Join(cfg.Images.LocalDir, ref+".png"))
		assert.NoError(t, err, "local root must hold %s", ref)
		_, err = os.Stat(filepath.Join(cfg.Images.ShapesDir, ref+".png"))
		assert.NoError(t, err, "shapes root must hold %s", ref)
	}

	store, err := storecsv.New(cfg.Store.CSVPath)
	require.NoError(t, err)
	ds, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Records, 4)
	assert.Equal(t, "2026-08-26", ds.Records[0].Date)
	assert.Equal(t, "004", ds.Records[0].ShapeReference)
	assert.Equal(t, "2026-08-24", ds.Records[2].Date)
	assert.Empty(t, ds.Records[2].ShapeReference, "imageless entry keeps a blank reference")
	assert.Equal(t, "001", ds.Records[3].ShapeReference)
}

func TestRunUpdateFirstPageFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	cfg := testConfig(t, broken.URL)
	a := newTestApp(t, cfg)

	_, err := a.RunUpdate(context.Background())
	require.Error(t, err)
	_, statErr := os.Stat(cfg.Store.CSVPath)
	assert.True(t, os.IsNotExist(statErr), "nothing may be persisted when the first page fails")
}
