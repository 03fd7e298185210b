// Package calendar is the adapter between the intake core and the one external
// calendar appointments are booked into.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrCalendarUnavailable is wrapped by every gateway error caused by the
// remote calendar failing to answer.
var ErrCalendarUnavailable = errors.New("calendar unavailable")

// BusyInterval is a closed range during which the calendar is occupied.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside [Start, End).
func (b BusyInterval) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// Event is the appointment handed to the calendar on booking.
type Event struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
}

// Gateway queries and writes the configured calendar. Results of
// QueryFreeBusy are unordered.
type Gateway interface {
	QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]BusyInterval, error)
	CreateEvent(ctx context.Context, event Event) error
}
