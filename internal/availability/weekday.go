package availability

import (
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

var (
	// ErrInvalidDayLabel is returned when a day reference is not recognised.
	ErrInvalidDayLabel = errors.New("availability: invalid day label")
	// ErrDayNotInWindow is returned when the weekday does not occur in the next 7 days.
	ErrDayNotInWindow = errors.New("availability: day not in the next 7 days")
)

// weekdayWindow is how far ahead ResolveWeekday looks, today being day 0.
const weekdayWindow = 7

var englishWeekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// frenchToEnglish maps French day references onto their English label.
var frenchToEnglish = map[string]string{
	"lundi":       "monday",
	"mardi":       "tuesday",
	"mercredi":    "wednesday",
	"jeudi":       "thursday",
	"vendredi":    "friday",
	"samedi":      "saturday",
	"dimanche":    "sunday",
	"aujourd'hui": "today",
	"aujourd’hui": "today",
	"demain":      "tomorrow",
}

var frenchWeekdayNames = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

// FrenchWeekday returns the French name of wd.
func FrenchWeekday(wd time.Weekday) string {
	return frenchWeekdayNames[wd]
}

// NormalizeDayLabel maps an English or French day reference to its canonical
// English label ("monday".."sunday", "today", "tomorrow").
func NormalizeDayLabel(label string) (string, error) {
	norm := strings.ToLower(strings.TrimSpace(label))
	if english, ok := frenchToEnglish[norm]; ok {
		norm = english
	}
	if norm == "today" || norm == "tomorrow" {
		return norm, nil
	}
	if _, ok := englishWeekdays[norm]; ok {
		return norm, nil
	}
	return "", ErrInvalidDayLabel
}

// ResolveWeekday turns a day reference into the next matching date, today included.
func (e *Engine) ResolveWeekday(label string) (civil.Date, error) {
	norm, err := NormalizeDayLabel(label)
	if err != nil {
		return civil.Date{}, err
	}

	today := e.Today()
	switch norm {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}

	target := englishWeekdays[norm]
	d := today
	for n := 0; n < weekdayWindow; n++ {
		if weekday(d) == target {
			return d, nil
		}
		d = d.AddDays(1)
	}
	return civil.Date{}, ErrDayNotInWindow
}
