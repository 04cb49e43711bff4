package versioning

import (
	"time"

	"sdgcatalog/internal/catalog/models"
	dErrors "sdgcatalog/pkg/domain-errors"
)

// ShouldCreateNewVersion decides whether an edit forks a new version or
// mutates the current one, given the current version's publication date,
// the proposed date, and today. All comparisons are at day granularity.
//
//	previous     | proposed                        | result
//	-------------+---------------------------------+---------------------------
//	nil(concept) | any                             | mutate
//	<= today     | any                             | create
//	>  today     | < previous AND < today          | error (date regression)
//	>  today     | otherwise                       | mutate (overwrite schedule)
//
// A concept is never forked: mutating it in place is what keeps the
// single-concept invariant without cleanup. Any edit touching an already
// active or past version forks, preserving published history. A scheduled
// version is the single mutable "future" slot; pulling its date back
// before an already-published date would rewrite history and is rejected.
func ShouldCreateNewVersion(previous, proposed *time.Time, today time.Time) (bool, error) {
	if previous == nil {
		return false, nil
	}
	day := models.Day(today)
	prev := models.Day(*previous)

	if !prev.After(day) {
		// Already published (today or earlier): every edit forks.
		return true, nil
	}

	// Scheduled version.
	if proposed != nil {
		prop := models.Day(*proposed)
		if prop.Before(prev) && prop.Before(day) {
			return false, dErrors.NewValidation(dErrors.Invalid(
				"publicatie_datum",
				"cannot move publication date earlier than a prior version's date",
			))
		}
	}
	return false, nil
}
