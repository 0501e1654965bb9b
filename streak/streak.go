// Package streak computes consecutive-day activity streaks.
//
// Days are calendar dates in the location of the reference time, so the
// result does not drift across DST changes the way 24h arithmetic would.
package streak

import (
	"sort"
	"time"
)

// day is a calendar date with no clock or zone attached.
type day struct {
	y int
	m time.Month
	d int
}

func dayOf(t time.Time, loc *time.Location) day {
	y, m, d := t.In(loc).Date()
	return day{y, m, d}
}

// ordinal maps a calendar date to a day count that increases by exactly one
// per calendar day. Computing it in UTC avoids DST gaps.
func (d day) ordinal() int64 {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// distinctDays returns the unique calendar days in dates, newest first,
// skipping zero times.
func distinctDays(dates []time.Time, loc *time.Location) []int64 {
	seen := make(map[int64]struct{}, len(dates))
	out := make([]int64, 0, len(dates))
	for _, t := range dates {
		if t.IsZero() {
			continue
		}
		o := dayOf(t, loc).ordinal()
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

// Compute returns the length of the streak that is still alive at now.
//
// Activity after today is ignored. The run must start today or yesterday;
// every further day must be exactly one calendar day before the previous one.
func Compute(dates []time.Time, now time.Time) int {
	today := dayOf(now, now.Location()).ordinal()
	count := 0
	var prev int64
	for _, o := range distinctDays(dates, now.Location()) {
		if o > today {
			continue
		}
		if count == 0 {
			if today-o > 1 {
				return 0
			}
			count, prev = 1, o
			continue
		}
		if prev-o != 1 {
			break
		}
		count++
		prev = o
	}
	return count
}

// Longest returns the longest run of consecutive days anywhere in dates.
// Days are taken in loc; a nil loc means UTC.
func Longest(dates []time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	days := distinctDays(dates, loc)
	best, run := 0, 0
	for i, o := range days {
		if i > 0 && days[i-1]-o == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// DaysBetween returns the number of calendar days from a to b, measured in
// b's location. It is negative when a falls on a later day than b.
func DaysBetween(a, b time.Time) int {
	loc := b.Location()
	return int(dayOf(b, loc).ordinal() - dayOf(a, loc).ordinal())
}

// IsActive reports whether a streak whose last activity was at last is
// still alive at now: the last activity was today or yesterday.
func IsActive(last, now time.Time) bool {
	if last.IsZero() || now.IsZero() {
		return false
	}
	diff := DaysBetween(last, now)
	return diff == 0 || diff == 1
}

// Extends reports whether activity at now adds a new day to a streak whose
// last activity was at last. Activity on the same day does not.
func Extends(last, now time.Time) bool {
	return last.IsZero() || DaysBetween(last, now) >= 1
}
