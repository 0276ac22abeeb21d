// internal/stats/stats.go
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github-release-stats/internal/model"
)

// Count is one labelled bucket of an aggregate view.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Document is the full stats payload consumed by the dashboard. It is
// recomputed from the current release collection on every request; given
// the same input collection the result is identical.
type Document struct {
	AllYears           []string           `json:"allYears"`
	YearStats          []Count            `json:"yearStats"`
	MonthStats         map[string][]Count `json:"monthStats"`
	WeekdayStats       []Count            `json:"weekdayStats"`
	ReleaseTypeStats   []Count            `json:"releaseTypeStats"`
	Top3Months         []Count            `json:"top3Months"`
	AvgReleaseInterval *int               `json:"avgReleaseInterval"`
}

// Release type bucket labels, in evaluation priority order.
const (
	TypeDraft      = "Draft"
	TypePrerelease = "Prerelease"
	TypeRelease    = "Release"
)

const topMonthsSize = 3

var (
	workdays    = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	allWeekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
)

// Aggregator computes the summary views over a release collection. Basis
// and WorkdayOnly are fixed per run; every view sees the same filtered
// collection, so the views always agree with each other.
type Aggregator struct {
	basis       model.TimeBasis
	workdayOnly bool
}

func New(basis model.TimeBasis, workdayOnly bool) *Aggregator {
	return &Aggregator{basis: basis, workdayOnly: workdayOnly}
}

// filter drops Saturday/Sunday records when workday-only mode is active.
// The weekday field was derived from the basis timestamp at ingestion, so
// filtering and classification share one authoritative field.
func (a *Aggregator) filter(releases []model.Release) []model.Release {
	if !a.workdayOnly {
		return releases
	}
	kept := make([]model.Release, 0, len(releases))
	for _, r := range releases {
		if r.PublishedWeekday == "Saturday" || r.PublishedWeekday == "Sunday" {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// YearCounts groups by year, ordered by ascending text comparison. Years
// are fixed-width four-digit text, so text order coincides with numeric
// order.
func (a *Aggregator) YearCounts(releases []model.Release) []Count {
	byYear := make(map[string]int)
	for _, r := range a.filter(releases) {
		byYear[r.PublishedYear]++
	}

	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Strings(years)

	counts := make([]Count, len(years))
	for i, y := range years {
		counts[i] = Count{Label: y, Count: byYear[y]}
	}
	return counts
}

// MonthCounts groups by month within one year. The result always has
// exactly 12 entries "01".."12" in order, zero-filled; the consuming chart
// assumes a fixed 12-point x-axis.
func (a *Aggregator) MonthCounts(year string, releases []model.Release) []Count {
	byMonth := make(map[string]int)
	for _, r := range a.filter(releases) {
		if r.PublishedYear == year {
			byMonth[r.PublishedMonth]++
		}
	}

	counts := make([]Count, 12)
	for m := 1; m <= 12; m++ {
		label := fmt.Sprintf("%02d", m)
		counts[m-1] = Count{Label: label, Count: byMonth[label]}
	}
	return counts
}

// WeekdayCounts groups by weekday in fixed Monday-first order, zero-filled.
// In workday-only mode the Saturday and Sunday buckets are omitted entirely
// rather than shown as zeros.
func (a *Aggregator) WeekdayCounts(releases []model.Release) []Count {
	byDay := make(map[string]int)
	for _, r := range a.filter(releases) {
		byDay[r.PublishedWeekday]++
	}

	days := allWeekdays
	if a.workdayOnly {
		days = workdays
	}
	counts := make([]Count, len(days))
	for i, d := range days {
		counts[i] = Count{Label: d, Count: byDay[d]}
	}
	return counts
}

// TypeCounts partitions into exactly three mutually exclusive buckets,
// evaluated in priority order: draft, then prerelease, then release. Every
// record lands in exactly one bucket, so the three counts sum to the total.
func (a *Aggregator) TypeCounts(releases []model.Release) []Count {
	var drafts, prereleases, regular int
	for _, r := range a.filter(releases) {
		switch {
		case r.IsDraft:
			drafts++
		case r.IsPrerelease:
			prereleases++
		default:
			regular++
		}
	}
	return []Count{
		{Label: TypeDraft, Count: drafts},
		{Label: TypePrerelease, Count: prereleases},
		{Label: TypeRelease, Count: regular},
	}
}

// TopMonths ranks the month-of-year totals across all years and returns the
// first 3, descending by count with ascending month number breaking ties.
// The ranking runs over all 12 zero-filled months, so the result has a
// fixed size even for sparse input.
func (a *Aggregator) TopMonths(releases []model.Release) []Count {
	byMonth := make(map[string]int)
	for _, r := range a.filter(releases) {
		byMonth[r.PublishedMonth]++
	}

	ranked := make([]Count, 12)
	for m := 1; m <= 12; m++ {
		label := fmt.Sprintf("%02d", m)
		ranked[m-1] = Count{Label: label, Count: byMonth[label]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Label < ranked[j].Label
	})
	return ranked[:topMonthsSize]
}

// AverageInterval sorts the basis timestamps ascending and returns the mean
// of consecutive gaps, rounded to the nearest whole day. The second return
// is false when fewer than two timestamps exist; that case is a defined
// sentinel, distinguishable from a genuine zero-day average.
func (a *Aggregator) AverageInterval(releases []model.Release) (int, bool) {
	filtered := a.filter(releases)
	if len(filtered) < 2 {
		return 0, false
	}

	times := make([]time.Time, len(filtered))
	for i, r := range filtered {
		times[i] = r.BasisTime(a.basis)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var total time.Duration
	for i := 1; i < len(times); i++ {
		total += times[i].Sub(times[i-1])
	}
	mean := total / time.Duration(len(times)-1)
	return int(math.Round(mean.Hours() / 24)), true
}

// Build assembles the complete dashboard document from one release
// collection.
func (a *Aggregator) Build(releases []model.Release) Document {
	yearStats := a.YearCounts(releases)

	allYears := make([]string, len(yearStats))
	monthStats := make(map[string][]Count, len(yearStats))
	for i, y := range yearStats {
		allYears[i] = y.Label
		monthStats[y.Label] = a.MonthCounts(y.Label, releases)
	}

	doc := Document{
		AllYears:         allYears,
		YearStats:        yearStats,
		MonthStats:       monthStats,
		WeekdayStats:     a.WeekdayCounts(releases),
		ReleaseTypeStats: a.TypeCounts(releases),
		Top3Months:       a.TopMonths(releases),
	}
	if avg, ok := a.AverageInterval(releases); ok {
		doc.AvgReleaseInterval = &avg
	}
	return doc
}
