package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/wolfman30/voice-intake/pkg/logging"
)

// GoogleGateway talks to a single Google Calendar.
type GoogleGateway struct {
	service    *gcal.Service
	calendarID string
	logger     *logging.Logger
}

// NewGoogleGateway builds a gateway for calendarID. Credentials and endpoints
// are supplied through opts (e.g. option.WithCredentialsFile).
func NewGoogleGateway(ctx context.Context, calendarID string, logger *logging.Logger, opts ...option.ClientOption) (*GoogleGateway, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, fmt.Errorf("calendar: calendar id is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google service: %w", err)
	}
	return &GoogleGateway{service: svc, calendarID: calendarID, logger: logger}, nil
}

// QueryFreeBusy returns the busy periods of the calendar between timeMin and timeMax.
func (g *GoogleGateway) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]BusyInterval, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: g.calendarID}},
	}
	resp, err := g.service.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: freebusy query: %w: %w", ErrCalendarUnavailable, err)
	}

	cal, ok := resp.Calendars[g.calendarID]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("calendar: freebusy query: %w: %s", ErrCalendarUnavailable, cal.Errors[0].Reason)
	}

	busy := make([]BusyInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		if period == nil {
			continue
		}
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			g.logger.Warn("calendar: skipping busy period with bad start", "start", period.Start, "error", err)
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			g.logger.Warn("calendar: skipping busy period with bad end", "end", period.End, "error", err)
			continue
		}
		busy = append(busy, BusyInterval{Start: start.UTC(), End: end.UTC()})
	}
	return busy, nil
}

// CreateEvent inserts the appointment into the calendar.
func (g *GoogleGateway) CreateEvent(ctx context.Context, event Event) error {
	ev := &gcal.Event{
		Summary:     event.Title,
		Description: event.Description,
		Start:       eventDateTime(event.Start),
		End:         eventDateTime(event.End),
	}
	created, err := g.service.Events.Insert(g.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("calendar: insert event: %w: %w", ErrCalendarUnavailable, err)
	}
	g.logger.Info("calendar: event created", "event_id", created.Id, "start", event.Start.Format(time.RFC3339))
	return nil
}

func eventDateTime(t time.Time) *gcal.EventDateTime {
	dt := &gcal.EventDateTime{DateTime: t.Format(time.RFC3339)}
	if name := t.Location().String(); name != "Local" {
		dt.TimeZone = name
	}
	return dt
}
