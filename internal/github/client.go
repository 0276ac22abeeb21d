// internal/github/client.go
package github

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const perPage = 100

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// An empty token yields an unauthenticated client; GitHub applies lower
// rate limits but requests still succeed.
func NewClient(token string, logger *slog.Logger) *Client {
	if token == "" {
		return &Client{
			gh:     github.NewClient(nil),
			logger: logger,
		}
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:     github.NewClient(tc),
		logger: logger,
	}
}

// OverrideBaseURL points the client at an alternate API root, e.g. a local
// fake server in tests. The existing client is rebuilt in place, so a
// configured token transport survives the switch.
func (c *Client) OverrideBaseURL(rawURL string) error {
	ghc, err := c.gh.WithEnterpriseURLs(rawURL, rawURL)
	if err != nil {
		return err
	}
	c.gh = ghc
	return nil
}

// ListReleases fetches all releases for a repository, paging from page 1
// until the API returns an empty page. Pagination within one repository is
// strictly sequential: the next page is only requested after the previous
// response arrives.
//
// Fetching is best effort. A request error for any page stops pagination
// and returns the releases accumulated so far; the error is logged, not
// returned. Callers must treat the result as possibly incomplete.
func (c *Client) ListReleases(ctx context.Context, owner, name string) []*github.RepositoryRelease {
	var allReleases []*github.RepositoryRelease

	opts := &github.ListOptions{
		PerPage: perPage,
		Page:    1,
	}

	for {
		c.logger.Debug("Fetching releases page", "owner", owner, "repo", name, "page", opts.Page)

		releases, _, err := c.gh.Repositories.ListReleases(ctx, owner, name, opts)
		if err != nil {
			c.logger.Error("Release pagination terminated early",
				"owner", owner, "repo", name, "page", opts.Page,
				"accumulated", len(allReleases), "error", err)
			return allReleases
		}

		if len(releases) == 0 {
			break
		}

		allReleases = append(allReleases, releases...)
		opts.Page++
	}

	return allReleases
}
