// Package booking turns a completed intake into a calendar appointment.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/voice-intake/internal/calendar"
	"github.com/wolfman30/voice-intake/internal/observability/metrics"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

var bookingTracer = otel.Tracer("voiceintake.internal.booking")

// ErrIncompleteRequest is returned when a request lacks one of the intake fields.
var ErrIncompleteRequest = errors.New("booking: incomplete request")

const (
	DefaultDuration          = time.Hour
	DefaultDescriptionSuffix = "(Appointment scheduled by JARVIS)"
)

// Request carries the completed intake record.
type Request struct {
	SessionID string
	FirstName string
	LastName  string
	Reason    string
	Date      *civil.Date
	Time      *civil.Time
	Language  string
}

func (r Request) validate() error {
	var missing []string
	if strings.TrimSpace(r.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(r.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(r.Reason) == "" {
		missing = append(missing, "reason")
	}
	if r.Date == nil || !r.Date.IsValid() {
		missing = append(missing, "date")
	}
	if r.Time == nil || !r.Time.IsValid() {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Recorder keeps a local trace of booked appointments.
type Recorder interface {
	Record(ctx context.Context, appt Appointment) error
}

// Finalizer writes confirmed appointments to the calendar.
type Finalizer struct {
	gateway  calendar.Gateway
	location *time.Location
	duration time.Duration
	suffix   string
	ledger   Recorder
	logger   *logging.Logger
	metrics  *metrics.IntakeMetrics
	now      func() time.Time
}

type Option func(*Finalizer)

func WithDuration(d time.Duration) Option {
	return func(f *Finalizer) {
		if d > 0 {
			f.duration = d
		}
	}
}

func WithDescriptionSuffix(suffix string) Option {
	return func(f *Finalizer) { f.suffix = strings.TrimSpace(suffix) }
}

// WithLedger records every booked appointment after the calendar write.
func WithLedger(r Recorder) Option {
	return func(f *Finalizer) { f.ledger = r }
}

func WithLogger(logger *logging.Logger) Option {
	return func(f *Finalizer) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithMetrics(m *metrics.IntakeMetrics) Option {
	return func(f *Finalizer) { f.metrics = m }
}

// NewFinalizer builds a finalizer writing events in loc.
func NewFinalizer(gateway calendar.Gateway, loc *time.Location, opts ...Option) *Finalizer {
	if gateway == nil {
		panic("booking: calendar gateway required")
	}
	if loc == nil {
		loc = time.UTC
	}
	f := &Finalizer{
		gateway:  gateway,
		location: loc,
		duration: DefaultDuration,
		suffix:   DefaultDescriptionSuffix,
		logger:   logging.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Event builds the calendar event for a validated req without writing it.
func (f *Finalizer) Event(req Request) calendar.Event {
	d, t := *req.Date, *req.Time
	start := time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, 0, f.location)
	description := strings.TrimSpace(req.Reason)
	if f.suffix != "" {
		description = strings.TrimSpace(description + " " + f.suffix)
	}
	return calendar.Event{
		Title:       fmt.Sprintf("Appointment with %s %s", strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)),
		Start:       start,
		End:         start.Add(f.duration),
		Description: description,
	}
}

// Book creates the calendar event for req. Ledger failures are logged only.
func (f *Finalizer) Book(ctx context.Context, req Request) (calendar.Event, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("intake.session_id", req.SessionID))

	if err := req.validate(); err != nil {
		span.RecordError(err)
		f.metrics.ObserveBooking("invalid")
		return calendar.Event{}, err
	}

	event := f.Event(req)
	if err := f.gateway.CreateEvent(ctx, event); err != nil {
		span.RecordError(err)
		f.metrics.ObserveBooking("failed")
		f.logger.Error("calendar event creation failed", "session_id", req.SessionID, "error", err)
		return calendar.Event{}, fmt.Errorf("booking: create event: %w", err)
	}
	f.metrics.ObserveBooking("booked")
	f.logger.Info("appointment booked", "session_id", req.SessionID, "start", event.Start.Format(time.RFC3339))

	if f.ledger != nil {
		appt := Appointment{
			SessionID: req.SessionID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Reason:    req.Reason,
			StartsAt:  event.Start,
			EndsAt:    event.End,
			Language:  req.Language,
			CreatedAt: f.now().UTC(),
		}
		if err := f.ledger.Record(ctx, appt); err != nil {
			span.RecordError(err)
			f.logger.Warn("appointment ledger write failed", "session_id", req.SessionID, "error", err)
		}
	}
	return event, nil
}
