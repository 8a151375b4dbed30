package domain

import (
	"fmt"
	"sort"
	"time"
)

// MaxRepeatDates caps how many dates one weekly rule may expand to.
const MaxRepeatDates = 104

// WeeklyRule repeats a lesson every Interval weeks on Weekdays, keeping the
// first lesson's wall-clock time. Either Count or Until must be set.
type WeeklyRule struct {
	// Weekdays defaults to the weekday of the first lesson.
	Weekdays []time.Weekday
	Interval int
	Count    int
	Until    *time.Time
}

// ExpandWeekly returns the start times produced by rule, beginning with
// first, in ascending order. Dates are computed in loc so the local hour
// survives DST changes.
func ExpandWeekly(first time.Time, rule WeeklyRule, loc *time.Location) ([]time.Time, error) {
	if first.IsZero() {
		return nil, NewValidationError(ReasonMissingField, "dates", "a first date is required to repeat")
	}
	if rule.Count <= 0 && rule.Until == nil {
		return nil, NewValidationError(ReasonMissingField, "repeat", "repeat needs a count or an until date")
	}
	if rule.Count > MaxRepeatDates {
		return nil, NewValidationError(ReasonInvalidField, "repeat.count",
			fmt.Sprintf("repeat count must not exceed %d", MaxRepeatDates))
	}
	if loc == nil {
		loc = time.Local
	}

	start := first.In(loc)
	if rule.Until != nil && rule.Until.Before(start) {
		return nil, NewValidationError(ReasonInvalidField, "repeat.until", "until must not be before the first date")
	}

	weekdays := normalizeWeekdayList(rule.Weekdays)
	if len(weekdays) == 0 {
		weekdays = []time.Weekday{start.Weekday()}
	}
	interval := max(rule.Interval, 1)

	startMonday := mondayOf(start)
	out := make([]time.Time, 0, max(rule.Count, len(weekdays)))
	for week := 0; ; week++ {
		monday := startMonday.AddDate(0, 0, week*interval*7)
		for _, wd := range weekdays {
			day := monday.AddDate(0, 0, offsetFromMonday(wd))
			t := time.Date(day.Year(), day.Month(), day.Day(),
				start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), loc)
			if t.Before(start) {
				continue
			}
			if rule.Until != nil && t.After(*rule.Until) {
				return out, nil
			}
			if len(out) == MaxRepeatDates {
				return nil, NewValidationError(ReasonInvalidField, "repeat.until",
					fmt.Sprintf("repeat must not produce more than %d dates", MaxRepeatDates))
			}
			out = append(out, t)
			if rule.Count > 0 && len(out) == rule.Count {
				return out, nil
			}
		}
	}
}

// normalizeWeekdayList dedupes and orders days Monday first.
func normalizeWeekdayList(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return offsetFromMonday(out[i]) < offsetFromMonday(out[j]) })
	return out
}

// mondayOf returns the calendar date of t's Monday at midnight UTC. It is
// only used to step through calendar days.
func mondayOf(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -offsetFromMonday(t.Weekday()))
}

func offsetFromMonday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}
