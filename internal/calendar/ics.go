package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const icsProductID = "-//voice-intake//appointment//EN"

// EncodeICS renders event as a single-event iCalendar document.
func EncodeICS(event Event, uid string, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
	vevent.Props.SetText(ical.PropSummary, event.Title)
	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}
	cal.Children = append(cal.Children, vevent.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("calendar: encode ics: %w", err)
	}
	return buf.Bytes(), nil
}
