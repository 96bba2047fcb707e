package ebbinghaus

import "time"

// Wall-clock anchors for the fixed interval sequence. Intraday stages are
// fine-grained; every long-horizon stage is anchored at the same morning
// time so reminders arrive predictably.
const (
	shortTermDelay = 20 * time.Minute
	morningHour    = 7
	eveningHour    = 20
)

// Day offsets for the long-horizon stages, keyed by the stage being
// completed. These are the classic exponentially widening Ebbinghaus
// intervals.
var stageIntervalDays = map[int]int{
	2: 1,
	3: 3,
	4: 7,
	5: 14,
	6: 30,
}

// ComputeNext calculates the next due instant and next stage after a
// successful repetition at currentStage.
//
// createdAt is converted into loc before any calendar arithmetic. The
// transition table, by currentStage:
//
//	0    -> 1: createdAt + 20 minutes
//	1    -> 2: today at 20:00 local, rolled to tomorrow when already past
//	2..6 -> +1: createdAt's date + {1,3,7,14,30} days, at 07:00 local
//	>= 7 -> 8: base date + 30 days at 07:00 local, where base is
//	           lastSuccessAt when provided and createdAt otherwise
//
// The stage is clamped at 8, so the monthly interval stays a stable 30
// days no matter how many repetitions follow.
func ComputeNext(
	createdAt time.Time,
	currentStage int,
	loc *time.Location,
	lastSuccessAt *time.Time,
) (time.Time, int) {
	createdAt = createdAt.In(loc)

	switch {
	case currentStage == 0:
		return createdAt.Add(shortTermDelay), 1

	case currentStage == 1:
		due := atHour(createdAt, eveningHour, loc)
		// 20:00 already passed today, move to tomorrow evening.
		if !due.After(createdAt) {
			due = due.AddDate(0, 0, 1)
		}
		return due, 2

	case currentStage >= 2 && currentStage <= 6:
		days := stageIntervalDays[currentStage]
		due := atHour(createdAt.AddDate(0, 0, days), morningHour, loc)
		return due, currentStage + 1

	default: // currentStage >= 7: monthly phase
		base := createdAt
		if lastSuccessAt != nil {
			base = lastSuccessAt.In(loc)
		}
		due := atHour(base.AddDate(0, 0, 30), morningHour, loc)
		return due, MonthlyStage
	}
}

// ComputeFailure calculates the rollback schedule after a reported failure.
// The stage steps back by one, floored at 0, and the next attempt is
// always failedAt's date + 1 day at 07:00 local regardless of which stage
// failed. The penalty is uniform on purpose: failure resets momentum to
// "try again tomorrow morning" instead of attempting partial credit.
func ComputeFailure(failedAt time.Time, currentStage int, loc *time.Location) (time.Time, int) {
	failedAt = failedAt.In(loc)

	nextStage := currentStage - 1
	if nextStage < 0 {
		nextStage = 0
	}

	due := atHour(failedAt.AddDate(0, 0, 1), morningHour, loc)
	return due, nextStage
}

// atHour pins t's calendar date to the given local hour.
func atHour(t time.Time, hour int, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, hour, 0, 0, 0, loc)
}
