// internal/normalize/normalize.go
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"

	custom_errors "github-release-stats/internal/errors"
	"github-release-stats/internal/model"
)

// AssetsSeparator joins asset names into one text field. Asset names are
// assumed to never contain it.
const AssetsSeparator = ";"

// weekdayNames is indexed by time.Weekday (Sunday = 0).
var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Calendar holds the fields derived from one timestamp.
type Calendar struct {
	Weekday string
	Date    string
	Year    string
	Month   string
	Week    int
}

// Classify derives the calendar fields from a timestamp. It is a pure
// function: the same input always yields the same output. No timezone
// normalization happens here beyond what the upstream parser already did,
// so values near midnight UTC keep whatever calendar day the timestamp
// encodes.
func Classify(t time.Time) Calendar {
	_, week := t.ISOWeek()
	return Calendar{
		Weekday: weekdayNames[int(t.Weekday())],
		Date:    t.Format("2006-01-02"),
		Year:    t.Format("2006"),
		Month:   fmt.Sprintf("%02d", int(t.Month())),
		Week:    week,
	}
}

// Normalize maps an upstream release to the canonical record, attaching the
// calendar fields derived from the configured basis timestamp.
//
// Missing display name, body and author collapse to empty text; asset names
// are joined with AssetsSeparator. A zero basis timestamp (for example a
// draft that was never published, when the basis is published_at) fails with
// ErrInvalidTimestamp, which aborts the whole ingestion run.
func Normalize(repo string, basis model.TimeBasis, r *github.RepositoryRelease) (model.Release, error) {
	rel := model.Release{
		Repo:         repo,
		ReleaseID:    r.GetID(),
		TagName:      r.GetTagName(),
		ReleaseName:  r.GetName(),
		Author:       r.GetAuthor().GetLogin(),
		CreatedAt:    r.GetCreatedAt().Time,
		PublishedAt:  r.GetPublishedAt().Time,
		IsDraft:      r.GetDraft(),
		IsPrerelease: r.GetPrerelease(),
		Body:         r.GetBody(),
		AssetsCount:  len(r.Assets),
		AssetsNames:  joinAssetNames(r.Assets),
		HTMLURL:      r.GetHTMLURL(),
	}

	basisTime := rel.BasisTime(basis)
	if basisTime.IsZero() {
		return model.Release{}, &custom_errors.ErrInvalidTimestamp{
			Repo:      repo,
			ReleaseID: rel.ReleaseID,
			Field:     string(basis),
		}
	}

	cal := Classify(basisTime)
	rel.PublishedWeekday = cal.Weekday
	rel.PublishedDate = cal.Date
	rel.PublishedYear = cal.Year
	rel.PublishedMonth = cal.Month
	rel.PublishedWeek = cal.Week

	return rel, nil
}

func joinAssetNames(assets []*github.ReleaseAsset) string {
	if len(assets) == 0 {
		return ""
	}
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.GetName()
	}
	return strings.Join(names, AssetsSeparator)
}
