//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github-release-stats/internal/api"
	"github-release-stats/internal/github"
	"github-release-stats/internal/model"
	"github-release-stats/internal/stats"
	"github-release-stats/internal/store"
	"github-release-stats/internal/syncer"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, func()) {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	// Get the connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	err = m.Up()
	require.NoError(t, err)

	// Create a connection pool
	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Teardown function to be called by the test
	teardown := func() {
		dbpool.Close()
		err := pgContainer.Terminate(ctx)
		require.NoError(t, err)
	}

	return dbpool, teardown
}

func TestIngestAndQuery_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	// Fake upstream API: one page of releases, then an empty page. The
	// client is pointed at this server via enterprise URLs, so requests
	// arrive under the /api/v3/ root.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/test-owner/test-repo/releases") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		if r.URL.Query().Get("page") != "1" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[
			{"id": 1, "tag_name": "v1.0.0", "name": "First", "author": {"login": "tester"}, "created_at": "2023-01-01T12:00:00Z", "published_at": "2023-01-02T12:00:00Z", "html_url": "url1"},
			{"id": 2, "tag_name": "v1.1.0-rc1", "prerelease": true, "author": {"login": "tester"}, "created_at": "2023-01-08T12:00:00Z", "published_at": "2023-01-09T12:00:00Z", "html_url": "url2"}
		]`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	// Create a github client pointing to the fake server
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ghClient := github.NewClient("", logger)
	require.NoError(t, ghClient.OverrideBaseURL(server.URL))

	// Wire the REAL database store behind the syncer and the API
	releaseStore := store.NewPGStore(dbpool)
	agg := stats.New(model.BasisPublishedAt, false)
	appSyncer, err := syncer.NewSyncer(releaseStore, ghClient, logger, []string{"test-owner/test-repo"}, model.BasisPublishedAt, agg, time.Minute, "")
	require.NoError(t, err)

	// --- ACT ---
	require.NoError(t, appSyncer.Run(ctx))

	// --- ASSERT ---
	// The table of record holds the classified canonical rows.
	releases, err := releaseStore.LoadReleases(ctx)
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, "v1.0.0", releases[0].TagName)
	assert.Equal(t, "Monday", releases[0].PublishedWeekday)
	assert.Equal(t, "2023", releases[0].PublishedYear)
	assert.Equal(t, "01", releases[0].PublishedMonth)
	assert.True(t, releases[1].IsPrerelease)

	// The stats endpoint re-aggregates from the same store.
	router := api.NewRouter(releaseStore, agg, logger)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc stats.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, []string{"2023"}, doc.AllYears)
	assert.Equal(t, 2, doc.MonthStats["2023"][0].Count)
	require.NotNil(t, doc.AvgReleaseInterval)
	assert.Equal(t, 7, *doc.AvgReleaseInterval)

	// A second run regenerates the whole table instead of appending.
	require.NoError(t, appSyncer.Run(ctx))
	releases, err = releaseStore.LoadReleases(ctx)
	require.NoError(t, err)
	assert.Len(t, releases, 2)
}
