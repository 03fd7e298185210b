package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryGateway is an in-process calendar used for local runs and tests.
// Created events are reported as busy by later queries.
type MemoryGateway struct {
	mu     sync.Mutex
	busy   []BusyInterval
	events []Event

	// Err, when set, fails every call as an unavailable calendar would.
	Err error
}

func NewMemoryGateway(busy ...BusyInterval) *MemoryGateway {
	return &MemoryGateway{busy: append([]BusyInterval(nil), busy...)}
}

// AddBusy blocks the range [start, end).
func (m *MemoryGateway) AddBusy(start, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = append(m.busy, BusyInterval{Start: start, End: end})
}

// Events returns the events created so far.
func (m *MemoryGateway) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *MemoryGateway) QueryFreeBusy(_ context.Context, timeMin, timeMax time.Time) ([]BusyInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, fmt.Errorf("calendar: freebusy query: %w: %w", ErrCalendarUnavailable, m.Err)
	}

	var out []BusyInterval
	for _, b := range m.busy {
		if b.End.After(timeMin) && b.Start.Before(timeMax) {
			out = append(out, b)
		}
	}
	for _, ev := range m.events {
		if ev.End.After(timeMin) && ev.Start.Before(timeMax) {
			out = append(out, BusyInterval{Start: ev.Start, End: ev.End})
		}
	}
	return out, nil
}

func (m *MemoryGateway) CreateEvent(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return fmt.Errorf("calendar: insert event: %w: %w", ErrCalendarUnavailable, m.Err)
	}
	m.events = append(m.events, event)
	return nil
}
