// Package availability decides which appointment slots can be offered.
package availability

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// BusinessHours is the weekly opening pattern. Every slot is one hour long and
// starts at one of StartingHours.
type BusinessHours struct {
	Days          []time.Weekday
	StartingHours []int
	Location      *time.Location
}

// DefaultBusinessHours is Monday to Friday, 9-12 and 13-17.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Days:          []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartingHours: []int{9, 10, 11, 13, 14, 15, 16},
		Location:      time.UTC,
	}
}

func (b BusinessHours) normalized() BusinessHours {
	out := BusinessHours{
		Days:          append([]time.Weekday(nil), b.Days...),
		StartingHours: append([]int(nil), b.StartingHours...),
		Location:      b.Location,
	}
	sort.Ints(out.StartingHours)
	if out.Location == nil {
		out.Location = time.UTC
	}
	return out
}

// IsOpenDay reports whether appointments can be booked on d.
func (b BusinessHours) IsOpenDay(d civil.Date) bool {
	wd := weekday(d)
	for _, open := range b.Days {
		if open == wd {
			return true
		}
	}
	return false
}

// IsOpenHour reports whether t starts within one of the open slots.
func (b BusinessHours) IsOpenHour(t civil.Time) bool {
	for _, h := range b.StartingHours {
		if h == t.Hour {
			return true
		}
	}
	return false
}

func (b BusinessHours) firstHour() int { return b.StartingHours[0] }

// closingHour is the hour the last slot ends.
func (b BusinessHours) closingHour() int { return b.StartingHours[len(b.StartingHours)-1] + 1 }

// ParseWeekdays parses a comma separated list of English weekday names.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		wd, ok := englishWeekdays[name]
		if !ok {
			return nil, fmt.Errorf("availability: unknown weekday %q", part)
		}
		days = append(days, wd)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("availability: no weekdays given")
	}
	return days, nil
}

// ParseHours parses a comma separated list of starting hours (0-23).
func ParseHours(raw string) ([]int, error) {
	var hours []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("availability: invalid hour %q", part)
		}
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("availability: no hours given")
	}
	sort.Ints(hours)
	return hours, nil
}

// ParseTimeOfDay accepts 24h "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(raw string) (civil.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, fmt.Errorf("availability: invalid time %q", raw)
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}
