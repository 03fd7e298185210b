package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/voice-intake/internal/calendar"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// ErrNoAvailabilityFound is returned when no open slot exists within the search horizon.
var ErrNoAvailabilityFound = errors.New("availability: no availability within search horizon")

// DefaultSearchHorizonDays bounds ClosestAvailableDate.
const DefaultSearchHorizonDays = 60

// FreeBusyQuerier is the read side of the calendar gateway.
type FreeBusyQuerier interface {
	QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.BusyInterval, error)
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Engine answers availability questions against the business hours and the
// calendar's free/busy data. Nothing is cached between calls.
type Engine struct {
	hours       BusinessHours
	calendar    FreeBusyQuerier
	clock       Clock
	horizonDays int
	logger      *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithSearchHorizon caps how many days ClosestAvailableDate inspects.
func WithSearchHorizon(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.horizonDays = days
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine constructs an availability engine.
func NewEngine(cal FreeBusyQuerier, hours BusinessHours, opts ...Option) *Engine {
	if cal == nil {
		panic("availability: calendar gateway required")
	}
	hours = hours.normalized()
	if len(hours.StartingHours) == 0 || len(hours.Days) == 0 {
		def := DefaultBusinessHours()
		def.Location = hours.Location
		hours = def
	}
	e := &Engine{
		hours:       hours,
		calendar:    cal,
		clock:       ClockFunc(time.Now),
		horizonDays: DefaultSearchHorizonDays,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location is the timezone dates and hours are interpreted in.
func (e *Engine) Location() *time.Location { return e.hours.Location }

// Hours returns the configured business hours.
func (e *Engine) Hours() BusinessHours { return e.hours }

func (e *Engine) now() time.Time { return e.clock.Now().In(e.hours.Location) }

// Today is the current date in the clinic timezone.
func (e *Engine) Today() civil.Date { return civil.DateOf(e.now()) }

func (e *Engine) IsOpenDay(d civil.Date) bool { return e.hours.IsOpenDay(d) }

func (e *Engine) IsOpenHour(t civil.Time) bool { return e.hours.IsOpenHour(t) }

// At combines a date and a time of day into an instant in the clinic timezone.
func (e *Engine) At(d civil.Date, t civil.Time) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, 0, e.hours.Location)
}

func (e *Engine) atHour(d civil.Date, hour int) time.Time {
	return e.At(d, civil.Time{Hour: hour})
}

// AvailableHours returns the starting hours still open on d, in ascending order.
// Any hour touched by a busy interval is excluded entirely.
func (e *Engine) AvailableHours(ctx context.Context, d civil.Date) ([]int, error) {
	if !e.IsOpenDay(d) {
		return nil, nil
	}

	now := e.now()
	today := civil.DateOf(now)
	if d.Before(today) {
		return nil, nil
	}

	candidates := make([]int, 0, len(e.hours.StartingHours))
	for _, h := range e.hours.StartingHours {
		if d == today && h <= now.Hour() {
			continue
		}
		candidates = append(candidates, h)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	dayStart := e.atHour(d, 0)
	dayEnd := dayStart.AddDate(0, 0, 1)
	busy, err := e.calendar.QueryFreeBusy(ctx, e.atHour(d, candidates[0]), e.atHour(d, e.hours.closingHour()))
	if err != nil {
		return nil, fmt.Errorf("availability: hours for %s: %w", d, err)
	}

	blocked := make(map[int]bool)
	for _, b := range busy {
		start, end := b.Start.In(e.hours.Location), b.End.In(e.hours.Location)
		if !end.After(dayStart) || !start.Before(dayEnd) {
			continue
		}
		first, last := start.Hour(), end.Hour()
		if start.Before(dayStart) {
			first = 0
		}
		if !end.Before(dayEnd) {
			last = 23
		}
		for h := first; h <= last; h++ {
			blocked[h] = true
		}
	}

	open := candidates[:0]
	for _, h := range candidates {
		if !blocked[h] {
			open = append(open, h)
		}
	}
	if len(open) == 0 {
		return nil, nil
	}
	return open, nil
}

// IsSlotAvailable reports whether an appointment can start at t on d.
func (e *Engine) IsSlotAvailable(ctx context.Context, d civil.Date, t civil.Time) (bool, error) {
	if !e.IsOpenDay(d) || !e.IsOpenHour(t) {
		return false, nil
	}

	candidate := e.At(d, t)
	if !candidate.After(e.now()) {
		return false, nil
	}

	busy, err := e.calendar.QueryFreeBusy(ctx, e.atHour(d, e.hours.firstHour()), e.atHour(d, e.hours.closingHour()))
	if err != nil {
		return false, fmt.Errorf("availability: slot %s %s: %w", d, t, err)
	}
	for _, b := range busy {
		if b.Contains(candidate) {
			return false, nil
		}
	}
	return true, nil
}

// ClosestAvailableDate returns the first date on or after from (and not before
// today) that is an open day with at least one open hour.
func (e *Engine) ClosestAvailableDate(ctx context.Context, from civil.Date) (civil.Date, error) {
	d := from
	if today := e.Today(); d.Before(today) {
		d = today
	}

	for i := 0; i < e.horizonDays; i, d = i+1, d.AddDays(1) {
		if !e.IsOpenDay(d) {
			continue
		}
		hours, err := e.AvailableHours(ctx, d)
		if err != nil {
			return civil.Date{}, err
		}
		if len(hours) > 0 {
			return d, nil
		}
	}

	e.logger.Warn("availability: search horizon exhausted", "from", from.String(), "horizon_days", e.horizonDays)
	return civil.Date{}, ErrNoAvailabilityFound
}
