// internal/model/models.go
package model

import "time"

// TimeBasis selects which upstream timestamp drives calendar classification
// and weekend filtering. It is configured once per run and applied
// everywhere; call sites never choose their own basis.
type TimeBasis string

const (
	BasisPublishedAt TimeBasis = "published_at"
	BasisCreatedAt   TimeBasis = "created_at"
)

// Release is the canonical flat record derived from one upstream GitHub
// release. It is created once during ingestion and never mutated; identity
// is (Repo, ReleaseID). The persisted table is regenerated wholesale on
// every ingestion run.
type Release struct {
	Repo         string
	ReleaseID    int64
	TagName      string
	ReleaseName  string
	Author       string
	CreatedAt    time.Time
	PublishedAt  time.Time
	IsDraft      bool
	IsPrerelease bool
	Body         string
	AssetsCount  int
	AssetsNames  string
	HTMLURL      string

	// Calendar fields, derived from the configured basis timestamp.
	// PublishedWeekday is always one of the seven English weekday names;
	// PublishedMonth is zero-padded "01".."12"; PublishedYear is the
	// four-digit year.
	PublishedWeekday string
	PublishedDate    string
	PublishedYear    string
	PublishedMonth   string
	PublishedWeek    int
}

// BasisTime returns the timestamp the configured basis points at.
func (r Release) BasisTime(b TimeBasis) time.Time {
	if b == BasisCreatedAt {
		return r.CreatedAt
	}
	return r.PublishedAt
}
