// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidRepoFormat is returned when a repository string in the config is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrInvalidTimestamp is returned when a release's basis timestamp is absent
// or unparseable. Every downstream statistic depends on the calendar fields,
// so this condition aborts the whole ingestion run instead of dropping the
// record.
type ErrInvalidTimestamp struct {
	Repo      string
	ReleaseID int64
	Field     string
}

func (e *ErrInvalidTimestamp) Error() string {
	return fmt.Sprintf("release %d in %s has no usable %s timestamp", e.ReleaseID, e.Repo, e.Field)
}
