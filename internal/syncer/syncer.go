// internal/syncer/syncer.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gh "github.com/google/go-github/v62/github"
	"golang.org/x/sync/errgroup"

	custom_errors "github-release-stats/internal/errors"
	"github-release-stats/internal/model"
	"github-release-stats/internal/normalize"
	"github-release-stats/internal/stats"
	"github-release-stats/internal/store"
)

const (
	// Number of repositories to fetch in parallel
	concurrency = 5
)

// ReleaseLister fetches all release pages for one repository, best effort.
type ReleaseLister interface {
	ListReleases(ctx context.Context, owner, name string) []*gh.RepositoryRelease
}

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

func (id RepoIdentifier) String() string {
	return id.Owner + "/" + id.Name
}

// Syncer orchestrates one ingestion batch: fetch every configured
// repository, normalize and classify the releases, and regenerate the
// persisted table.
type Syncer struct {
	store        store.Store
	ghClient     ReleaseLister
	logger       *slog.Logger
	reposToSync  []RepoIdentifier
	basis        model.TimeBasis
	agg          *stats.Aggregator
	fetchTimeout time.Duration
	statsOutPath string
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(st store.Store, ghClient ReleaseLister, logger *slog.Logger, repos []string, basis model.TimeBasis, agg *stats.Aggregator, fetchTimeout time.Duration, statsOutPath string) (*Syncer, error) {
	parsedRepos, err := parseRepoIdentifiers(repos)
	if err != nil {
		return nil, err
	}

	return &Syncer{
		store:        st,
		ghClient:     ghClient,
		logger:       logger,
		reposToSync:  parsedRepos,
		basis:        basis,
		agg:          agg,
		fetchTimeout: fetchTimeout,
		statsOutPath: statsOutPath,
	}, nil
}

// Run performs a single ingestion batch. Repositories are fetched
// concurrently with a bounded worker limit; each goroutine fills its own
// buffer and the buffers are merged after all complete, so no locking is
// needed. The overall fetch is bounded by the configured timeout; expiry
// truncates in-flight pagination the same way a page-level request failure
// does. An unparseable basis timestamp aborts the whole run, since every
// downstream statistic depends on the calendar fields.
func (s *Syncer) Run(ctx context.Context) error {
	s.logger.Info("Starting ingestion batch", "repos", len(s.reposToSync), "concurrency", concurrency, "timeout", s.fetchTimeout.String())

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(fetchCtx)
	g.SetLimit(concurrency)

	buffers := make([][]model.Release, len(s.reposToSync))
	for i, repoID := range s.reposToSync {
		g.Go(func() error {
			buf, err := s.fetchRepo(gctx, repoID)
			if err != nil {
				return err
			}
			buffers[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []model.Release
	for _, buf := range buffers {
		all = append(all, buf...)
	}

	// Persist with the parent context: a fetch timeout must not cancel the
	// write of what was accumulated.
	if err := s.store.SaveReleases(ctx, all); err != nil {
		return fmt.Errorf("persisting release table: %w", err)
	}
	s.logger.Info("Release table regenerated", "records", len(all))

	if s.statsOutPath != "" {
		if err := s.exportStats(all); err != nil {
			return err
		}
	}
	return nil
}

// fetchRepo retrieves and normalizes all releases for one repository into a
// private buffer.
func (s *Syncer) fetchRepo(ctx context.Context, id RepoIdentifier) ([]model.Release, error) {
	logger := s.logger.With("owner", id.Owner, "repo", id.Name)
	logger.Info("Fetching releases")

	raw := s.ghClient.ListReleases(ctx, id.Owner, id.Name)

	buf := make([]model.Release, 0, len(raw))
	for _, r := range raw {
		rel, err := normalize.Normalize(id.String(), s.basis, r)
		if err != nil {
			return nil, err
		}
		buf = append(buf, rel)
	}

	logger.Info("Fetched releases", "count", len(buf))
	return buf, nil
}

// exportStats writes the flattened per-repo aggregate rows next to the
// release table.
func (s *Syncer) exportStats(releases []model.Release) error {
	f, err := os.Create(s.statsOutPath)
	if err != nil {
		return fmt.Errorf("creating stats export %s: %w", s.statsOutPath, err)
	}
	if err := store.WriteStatRows(f, s.agg.FlattenByRepo(releases)); err != nil {
		f.Close()
		return fmt.Errorf("writing stats export %s: %w", s.statsOutPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.logger.Info("Stats export written", "path", s.statsOutPath)
	return nil
}

func parseRepoIdentifiers(repos []string) ([]RepoIdentifier, error) {
	var identifiers []RepoIdentifier
	for _, r := range repos {
		parts := strings.Split(r, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, &custom_errors.ErrInvalidRepoFormat{Repo: r}
		}
		identifiers = append(identifiers, RepoIdentifier{Owner: parts[0], Name: parts[1]})
	}
	return identifiers, nil
}
