package domain

import (
	"errors"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.New("invalid weekday")
	}
	return wd, nil
}

// NormalizeWeekdays returns the canonical English names ("Monday") in week
// order starting on Monday, without duplicates.
func NormalizeWeekdays(days []string) ([]string, error) {
	seen := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		wd, err := ParseWeekday(d)
		if err != nil {
			return nil, err
		}
		seen[wd] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		if _, ok := seen[wd]; ok {
			out = append(out, wd.String())
		}
	}
	return out, nil
}

// IsDayAvailable reports whether candidate falls on one of the service's
// available days, in loc. A nil service or an empty day list allows every
// date; a zero date is never available.
func IsDayAvailable(svc *ServiceSnapshot, candidate time.Time, loc *time.Location) bool {
	if candidate.IsZero() {
		return false
	}
	if svc == nil || len(svc.AvailableDays) == 0 {
		return true
	}
	if loc == nil {
		loc = time.Local
	}

	day := candidate.In(loc).Weekday().String()
	for _, d := range svc.AvailableDays {
		if strings.EqualFold(strings.TrimSpace(d), day) {
			return true
		}
	}
	return false
}
