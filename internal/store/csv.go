// internal/store/csv.go
package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github-release-stats/internal/model"
)

// releaseHeader is the fixed persisted column order. Changing it breaks the
// file contract with downstream consumers.
var releaseHeader = []string{
	"Repo", "ReleaseID", "Tag", "ReleaseName", "Author",
	"CreatedAt", "PublishedAt", "IsDraft", "IsPrerelease",
	"Body", "AssetsCount", "AssetsNames", "HtmlUrl",
	"PublishedWeekday", "PublishedDate", "PublishedYear", "PublishedMonth", "PublishedWeek",
}

const timeLayout = time.RFC3339

// CSVStore persists the canonical release table as a delimited file.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// SaveReleases regenerates the whole table. Rows are written sorted by
// (repo, published_at) ascending, so identical input yields a
// byte-identical file.
func (s *CSVStore) SaveReleases(_ context.Context, releases []model.Release) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating release table %s: %w", s.path, err)
	}
	if err := WriteReleases(f, releases); err != nil {
		f.Close()
		return fmt.Errorf("writing release table %s: %w", s.path, err)
	}
	return f.Close()
}

// LoadReleases reads the whole table back. Any malformed row fails the load;
// callers surface that as a server error rather than returning partial
// aggregates.
func (s *CSVStore) LoadReleases(_ context.Context) ([]model.Release, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening release table %s: %w", s.path, err)
	}
	defer f.Close()

	return ReadReleases(f)
}

// WriteReleases renders the canonical table with the fixed header order.
func WriteReleases(w io.Writer, releases []model.Release) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(releaseHeader); err != nil {
		return err
	}
	for _, r := range sortReleases(releases) {
		if err := cw.Write(releaseRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadReleases parses a canonical table produced by WriteReleases.
func ReadReleases(r io.Reader) ([]model.Release, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(releaseHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, col := range releaseHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], col)
		}
	}

	var releases []model.Release
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		rel, err := parseRelease(record)
		if err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", line, err)
		}
		releases = append(releases, rel)
	}
	return releases, nil
}

func releaseRecord(r model.Release) []string {
	return []string{
		r.Repo,
		strconv.FormatInt(r.ReleaseID, 10),
		r.TagName,
		r.ReleaseName,
		r.Author,
		r.CreatedAt.Format(timeLayout),
		r.PublishedAt.Format(timeLayout),
		strconv.FormatBool(r.IsDraft),
		strconv.FormatBool(r.IsPrerelease),
		r.Body,
		strconv.Itoa(r.AssetsCount),
		r.AssetsNames,
		r.HTMLURL,
		r.PublishedWeekday,
		r.PublishedDate,
		r.PublishedYear,
		r.PublishedMonth,
		strconv.Itoa(r.PublishedWeek),
	}
}

func parseRelease(record []string) (model.Release, error) {
	releaseID, err := strconv.ParseInt(record[1], 10, 64)
	if err != nil {
		return model.Release{}, fmt.Errorf("release id: %w", err)
	}
	createdAt, err := time.Parse(timeLayout, record[5])
	if err != nil {
		return model.Release{}, fmt.Errorf("created at: %w", err)
	}
	publishedAt, err := time.Parse(timeLayout, record[6])
	if err != nil {
		return model.Release{}, fmt.Errorf("published at: %w", err)
	}
	isDraft, err := strconv.ParseBool(record[7])
	if err != nil {
		return model.Release{}, fmt.Errorf("draft flag: %w", err)
	}
	isPrerelease, err := strconv.ParseBool(record[8])
	if err != nil {
		return model.Release{}, fmt.Errorf("prerelease flag: %w", err)
	}
	assetsCount, err := strconv.Atoi(record[10])
	if err != nil {
		return model.Release{}, fmt.Errorf("assets count: %w", err)
	}
	week, err := strconv.Atoi(record[17])
	if err != nil {
		return model.Release{}, fmt.Errorf("week number: %w", err)
	}

	return model.Release{
		Repo:             record[0],
		ReleaseID:        releaseID,
		TagName:          record[2],
		ReleaseName:      record[3],
		Author:           record[4],
		CreatedAt:        createdAt,
		PublishedAt:      publishedAt,
		IsDraft:          isDraft,
		IsPrerelease:     isPrerelease,
		Body:             record[9],
		AssetsCount:      assetsCount,
		AssetsNames:      record[11],
		HTMLURL:          record[12],
		PublishedWeekday: record[13],
		PublishedDate:    record[14],
		PublishedYear:    record[15],
		PublishedMonth:   record[16],
		PublishedWeek:    week,
	}, nil
}
