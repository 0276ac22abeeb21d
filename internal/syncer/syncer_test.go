// internal/syncer/syncer_test.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	custom_errors "github-release-stats/internal/errors"
	"github-release-stats/internal/model"
	"github-release-stats/internal/stats"
)

// MockStore is a mock of the store.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveReleases(ctx context.Context, releases []model.Release) error {
	args := m.Called(ctx, releases)
	return args.Error(0)
}

func (m *MockStore) LoadReleases(ctx context.Context) ([]model.Release, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Release), args.Error(1)
}

// fakeLister serves canned releases per "owner/name" key.
type fakeLister struct {
	releases map[string][]*gh.RepositoryRelease
}

func (f *fakeLister) ListReleases(_ context.Context, owner, name string) []*gh.RepositoryRelease {
	return f.releases[owner+"/"+name]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func upstreamRelease(id int64, publishedAt time.Time) *gh.RepositoryRelease {
	return &gh.RepositoryRelease{
		ID:          gh.Int64(id),
		TagName:     gh.String("v1"),
		CreatedAt:   &gh.Timestamp{Time: publishedAt.Add(-time.Hour)},
		PublishedAt: &gh.Timestamp{Time: publishedAt},
	}
}

func newTestSyncer(t *testing.T, st *MockStore, lister ReleaseLister, repos []string, statsOut string) *Syncer {
	t.Helper()
	agg := stats.New(model.BasisPublishedAt, false)
	s, err := NewSyncer(st, lister, testLogger(), repos, model.BasisPublishedAt, agg, time.Minute, statsOut)
	require.NoError(t, err)
	return s
}

func TestNewSyncer_InvalidRepoFormat(t *testing.T) {
	agg := stats.New(model.BasisPublishedAt, false)
	_, err := NewSyncer(&MockStore{}, &fakeLister{}, testLogger(), []string{"not-a-repo"}, model.BasisPublishedAt, agg, time.Minute, "")

	var formatErr *custom_errors.ErrInvalidRepoFormat
	assert.True(t, errors.As(err, &formatErr))
}

func TestSyncer_Run(t *testing.T) {
	mon := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)

	t.Run("merges all repositories into one table", func(t *testing.T) {
		lister := &fakeLister{releases: map[string][]*gh.RepositoryRelease{
			"octo/app":  {upstreamRelease(1, mon), upstreamRelease(2, mon.AddDate(0, 1, 0))},
			"acme/tool": {upstreamRelease(3, mon.AddDate(0, 2, 0))},
		}}

		st := &MockStore{}
		var saved []model.Release
		st.On("SaveReleases", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).([]model.Release) }).
			Return(nil)

		s := newTestSyncer(t, st, lister, []string{"octo/app", "acme/tool"}, "")
		require.NoError(t, s.Run(context.Background()))

		st.AssertNumberOfCalls(t, "SaveReleases", 1)
		require.Len(t, saved, 3)

		byRepo := map[string]int{}
		for _, r := range saved {
			byRepo[r.Repo]++
			assert.NotEmpty(t, r.PublishedWeekday, "calendar fields attached during ingestion")
		}
		assert.Equal(t, map[string]int{"octo/app": 2, "acme/tool": 1}, byRepo)
	})

	t.Run("empty fetch still regenerates the table", func(t *testing.T) {
		st := &MockStore{}
		st.On("SaveReleases", mock.Anything, mock.Anything).Return(nil)

		s := newTestSyncer(t, st, &fakeLister{}, []string{"octo/app"}, "")
		require.NoError(t, s.Run(context.Background()))

		st.AssertNumberOfCalls(t, "SaveReleases", 1)
	})

	t.Run("invalid basis timestamp aborts the run", func(t *testing.T) {
		draft := &gh.RepositoryRelease{
			ID:        gh.Int64(9),
			Draft:     gh.Bool(true),
			CreatedAt: &gh.Timestamp{Time: mon},
			// No published_at: classification cannot run.
		}
		lister := &fakeLister{releases: map[string][]*gh.RepositoryRelease{
			"octo/app": {upstreamRelease(1, mon), draft},
		}}

		st := &MockStore{}
		s := newTestSyncer(t, st, lister, []string{"octo/app"}, "")

		err := s.Run(context.Background())

		var tsErr *custom_errors.ErrInvalidTimestamp
		require.True(t, errors.As(err, &tsErr))
		st.AssertNotCalled(t, "SaveReleases", mock.Anything, mock.Anything)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		st := &MockStore{}
		st.On("SaveReleases", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		s := newTestSyncer(t, st, &fakeLister{}, []string{"octo/app"}, "")
		assert.ErrorContains(t, s.Run(context.Background()), "disk full")
	})

	t.Run("writes the stats export when configured", func(t *testing.T) {
		lister := &fakeLister{releases: map[string][]*gh.RepositoryRelease{
			"octo/app": {upstreamRelease(1, mon)},
		}}
		st := &MockStore{}
		st.On("SaveReleases", mock.Anything, mock.Anything).Return(nil)

		statsPath := filepath.Join(t.TempDir(), "stats.csv")
		s := newTestSyncer(t, st, lister, []string{"octo/app"}, statsPath)
		require.NoError(t, s.Run(context.Background()))

		data, err := os.ReadFile(statsPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Equal(t, "Type,Period,Repo,Count", lines[0])
		assert.Contains(t, lines, "year,2023,octo/app,1")
	})
}
