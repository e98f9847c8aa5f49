package reconcile

import (
	"time"

	"bjjvisits-backend/internal/domain"
)

// Duration repair thresholds. Durations of a minute or less are
// timestamp-precision artifacts; 20 hours and up is the date-rollover
// corruption pattern; anything over the operational cap is clamped.
const (
	zeroDurationMax   = time.Minute
	rolloverThreshold = 20 * time.Hour
	repairedDuration  = 30 * time.Minute
)

// DurationRule names which corrective rule applied to a visit
type DurationRule string

const (
	RuleNone         DurationRule = ""
	RuleZeroDuration DurationRule = "zero_duration"
	RuleRollover     DurationRule = "date_rollover"
	RuleCap          DurationRule = "duration_cap"
)

// NormalizeDuration applies the corrective rules to one start/finish pair
// and returns the repaired pair. The rule order matters: precision
// artifacts and rollovers are repaired to a plausible 30 minutes before
// the 65-minute cap is considered, so a 24-hour visit is not merely
// clamped to 60 minutes.
func NormalizeDuration(startedAt, finishedAt time.Time) (time.Time, time.Time, DurationRule) {
	dur := finishedAt.Sub(startedAt)

	switch {
	case dur >= -zeroDurationMax && dur <= zeroDurationMax:
		return startedAt, startedAt.Add(repairedDuration), RuleZeroDuration
	case dur >= rolloverThreshold:
		return finishedAt.Add(-repairedDuration), finishedAt, RuleRollover
	case dur > domain.MaxVisitDuration:
		return startedAt, startedAt.Add(domain.ClampVisitDuration), RuleCap
	default:
		return startedAt, finishedAt, RuleNone
	}
}
