// internal/stats/flatten.go
package stats

import (
	"fmt"
	"sort"

	"github-release-stats/internal/model"
)

// Row is one flattened statistic tuple for the tabular stats export.
type Row struct {
	Type   string
	Period string
	Repo   string
	Count  int
}

// FlattenByRepo renders the per-repo aggregate views as flat rows. Month
// periods carry the year ("2023-01") so rows stay unambiguous once
// flattened. Ordering is left to the serializer.
func (a *Aggregator) FlattenByRepo(releases []model.Release) []Row {
	byRepo := make(map[string][]model.Release)
	for _, r := range releases {
		byRepo[r.Repo] = append(byRepo[r.Repo], r)
	}

	repos := make([]string, 0, len(byRepo))
	for repo := range byRepo {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	var rows []Row
	for _, repo := range repos {
		rs := byRepo[repo]
		for _, c := range a.YearCounts(rs) {
			rows = append(rows, Row{Type: "year", Period: c.Label, Repo: repo, Count: c.Count})
			year := c.Label
			for _, mc := range a.MonthCounts(year, rs) {
				rows = append(rows, Row{
					Type:   "month",
					Period: fmt.Sprintf("%s-%s", year, mc.Label),
					Repo:   repo,
					Count:  mc.Count,
				})
			}
		}
		for _, c := range a.WeekdayCounts(rs) {
			rows = append(rows, Row{Type: "weekday", Period: c.Label, Repo: repo, Count: c.Count})
		}
		for _, c := range a.TypeCounts(rs) {
			rows = append(rows, Row{Type: "release_type", Period: c.Label, Repo: repo, Count: c.Count})
		}
	}
	return rows
}
