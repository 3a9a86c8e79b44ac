// Package catalog reconciles freshly fetched entries against the persisted
// dataset and plans the image downloads each merge requires.
package catalog

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dashwatch/votd-archive/internal/downloader"
	"github.com/dashwatch/votd-archive/internal/storage/imagedir"
	"github.com/dashwatch/votd-archive/internal/votd"
)

// Plan is the outcome of a merge: the dataset to persist and the download
// tasks to execute. UpToDate short-circuits both.
type Plan struct {
	UpToDate bool
	Dataset  votd.Dataset
	Tasks    []downloader.Task
}

// Merger implements the two merge strategies over one shared record
// pipeline.
type Merger struct {
	clock  votd.Clock
	logger *zap.Logger
}

// NewMerger constructs a Merger.
func NewMerger(clock votd.Clock, logger *zap.Logger) *Merger {
	return &Merger{
		clock:  clock,
		logger: logger,
	}
}

// Incremental merges the single newest remote entry into the existing
// dataset. The new record's reference is one past the highest reference
// seen in either the dataset or the local image root, so re-runs and
// out-of-band files can never collide.
func (m *Merger) Incremental(entry votd.CatalogEntry, existing votd.Dataset, local *imagedir.Dir) (Plan, error) {
	today := m.clock.Now().Format(votd.DateFormat)
	if existing.HasDate(today) {
		m.logger.Info("already up to date", zap.String("date", today))
		return Plan{UpToDate: true, Dataset: existing}, nil
	}

	lastOnDisk, err := local.LastRef()
	if err != nil {
		return Plan{}, fmt.Errorf("scan image root: %w", err)
	}
	next := existing.MaxRef()
	if lastOnDisk > next {
		next = lastOnDisk
	}
	next++

	ref := votd.FormatRef(next)
	imageURL := votd.ResolveImageURL(entry)
	if imageURL == "" {
		m.logger.Warn("no image url resolved for latest entry", zap.String("title", entry.Title))
		ref = ""
	}

	plan := Plan{Dataset: existing}
	plan.Dataset.Prepend(buildRecord(entry, today, ref))
	if imageURL != "" {
		plan.Tasks = []downloader.Task{{
			URL:          imageURL,
			Destinations: []string{local.Path(ref)},
			Ref:          ref,
		}}
	}
	return plan, nil
}

// Bulk plans a full resync: entry i of total (index 0 = most recent) gets
// reference total-i and synthetic date today-i days, so references stay
// monotonic with recency. The returned dataset replaces the store wholesale
// in fetch order; tasks mirror every resolved image to both roots.
func (m *Merger) Bulk(entries []votd.CatalogEntry, local, shapes *imagedir.Dir) Plan {
	today := m.clock.Now()
	total := len(entries)

	plan := Plan{
		Dataset: votd.Dataset{Records: make([]votd.Record, 0, total)},
	}
	for i, entry := range entries {
		date := today.AddDate(0, 0, -i).Format(votd.DateFormat)
		ref := votd.FormatRef(total - i)

		imageURL := votd.ResolveImageURL(entry)
		if imageURL == "" {
			ref = ""
		} else {
			plan.Tasks = append(plan.Tasks, downloader.Task{
				URL:          imageURL,
				Destinations: []string{local.Path(ref), shapes.Path(ref)},
				Ref:          ref,
			})
		}

		plan.Dataset.Records = append(plan.Dataset.Records, buildRecord(entry, date, ref))
	}
	return plan
}

func buildRecord(entry votd.CatalogEntry, date, ref string) votd.Record {
	return votd.Record{
		Date:              date,
		AuthorDisplayName: votd.CleanText(entry.AuthorDisplayName),
		Title:             votd.CleanText(entry.Title),
		ViewCount:         entry.ViewCount,
		NumberOfFavorites: entry.NumberOfFavorites,
		VizLink:           votd.ResolveVizLink(entry),
		ShapeReference:    ref,
	}
}

// ValidateReferences audits a dataset for duplicate shape references. The
// incremental and bulk numbering schemes are not harmonized, so a bulk
// resync followed by incremental runs can in principle collide; this makes
// the condition detectable instead of silent.
func ValidateReferences(d votd.Dataset) error {
	seen := make(map[string]string, len(d.Records))
	for _, r := range d.Records {
		if r.ShapeReference == "" {
			continue
		}
		if prev, ok := seen[r.ShapeReference]; ok {
			return fmt.Errorf("shape reference %s assigned to both %s and %s", r.ShapeReference, prev, r.Date)
		}
		seen[r.ShapeReference] = r.Date
	}
	return nil
}

// MissingImages lists references whose record exists but whose backing
// file is absent from the given root. Bulk persistence is best effort, so
// a record may legitimately outlive its download; this surfaces the gap.
func MissingImages(d votd.Dataset, dir *imagedir.Dir) []string {
	var missing []string
	for _, r := range d.Records {
		if r.ShapeReference == "" {
			continue
		}
		if _, err := os.Stat(dir.Path(r.ShapeReference)); err != nil {
			missing = append(missing, r.ShapeReference)
		}
	}
	return missing
}
