// internal/store/store.go
package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github-release-stats/internal/model"
	"github-release-stats/internal/stats"
)

// Store is the persisted table of record for canonical releases. A save
// replaces the whole table; rows are never updated in place.
type Store interface {
	SaveReleases(ctx context.Context, releases []model.Release) error
	LoadReleases(ctx context.Context) ([]model.Release, error)
}

// sortReleases orders rows by (repo, published_at) ascending, with the
// release id as a final key so the output is fully deterministic.
func sortReleases(releases []model.Release) []model.Release {
	sorted := make([]model.Release, len(releases))
	copy(sorted, releases)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Repo != sorted[j].Repo {
			return sorted[i].Repo < sorted[j].Repo
		}
		if !sorted[i].PublishedAt.Equal(sorted[j].PublishedAt) {
			return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
		}
		return sorted[i].ReleaseID < sorted[j].ReleaseID
	})
	return sorted
}

var statHeader = []string{"Type", "Period", "Repo", "Count"}

// WriteStatRows renders flattened statistic rows as delimited text, globally
// sorted by (repo, type, period) using text comparison. Identical input data
// produces byte-identical output regardless of original processing order, so
// exports stay diffable across ingestion runs.
func WriteStatRows(w io.Writer, rows []stats.Row) error {
	sorted := make([]stats.Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Repo != sorted[j].Repo {
			return sorted[i].Repo < sorted[j].Repo
		}
		if sorted[i].Type != sorted[j].Type {
			return sorted[i].Type < sorted[j].Type
		}
		return sorted[i].Period < sorted[j].Period
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(statHeader); err != nil {
		return fmt.Errorf("writing stats header: %w", err)
	}
	for _, row := range sorted {
		record := []string{row.Type, row.Period, row.Repo, strconv.Itoa(row.Count)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing stats row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
