// internal/store/postgres.go
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-release-stats/internal/model"
)

var releaseColumns = []string{
	"repo", "release_id", "tag_name", "release_name", "author",
	"created_at", "published_at", "is_draft", "is_prerelease",
	"body", "assets_count", "assets_names", "html_url",
	"published_weekday", "published_date", "published_year", "published_month", "published_week",
}

// PGStore persists the canonical release table in Postgres. It implements
// the same regenerate-wholesale contract as the CSV store: a save truncates
// and reloads the table in one transaction.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) SaveReleases(ctx context.Context, releases []model.Release) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	if _, err := tx.Exec(ctx, "TRUNCATE releases"); err != nil {
		return fmt.Errorf("truncating releases: %w", err)
	}

	sorted := sortReleases(releases)
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"releases"}, releaseColumns,
		pgx.CopyFromSlice(len(sorted), func(i int) ([]any, error) {
			r := sorted[i]
			return []any{
				r.Repo, r.ReleaseID, r.TagName, r.ReleaseName, r.Author,
				r.CreatedAt, r.PublishedAt, r.IsDraft, r.IsPrerelease,
				r.Body, r.AssetsCount, r.AssetsNames, r.HTMLURL,
				r.PublishedWeekday, r.PublishedDate, r.PublishedYear, r.PublishedMonth, r.PublishedWeek,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("inserting releases: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PGStore) LoadReleases(ctx context.Context) ([]model.Release, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT repo, release_id, tag_name, release_name, author,
		       created_at, published_at, is_draft, is_prerelease,
		       body, assets_count, assets_names, html_url,
		       published_weekday, published_date, published_year, published_month, published_week
		FROM releases
		ORDER BY repo, published_at, release_id`)
	if err != nil {
		return nil, fmt.Errorf("querying releases: %w", err)
	}
	defer rows.Close()

	var releases []model.Release
	for rows.Next() {
		var r model.Release
		err := rows.Scan(
			&r.Repo, &r.ReleaseID, &r.TagName, &r.ReleaseName, &r.Author,
			&r.CreatedAt, &r.PublishedAt, &r.IsDraft, &r.IsPrerelease,
			&r.Body, &r.AssetsCount, &r.AssetsNames, &r.HTMLURL,
			&r.PublishedWeekday, &r.PublishedDate, &r.PublishedYear, &r.PublishedMonth, &r.PublishedWeek,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning release row: %w", err)
		}
		releases = append(releases, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading release rows: %w", err)
	}
	return releases, nil
}
