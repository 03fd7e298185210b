package calendar

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/voice-intake/internal/observability/metrics"
)

var calendarTracer = otel.Tracer("voiceintake.internal.calendar")

type instrumented struct {
	next    Gateway
	metrics *metrics.CalendarMetrics
}

// Instrument wraps a gateway with tracing spans and request metrics.
func Instrument(next Gateway, m *metrics.CalendarMetrics) Gateway {
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]BusyInterval, error) {
	ctx, span := calendarTracer.Start(ctx, "calendar.freebusy", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("calendar.time_min", timeMin.Format(time.RFC3339)),
		attribute.String("calendar.time_max", timeMax.Format(time.RFC3339)),
	)

	start := time.Now()
	busy, err := i.next.QueryFreeBusy(ctx, timeMin, timeMax)
	i.metrics.ObserveRequest("freebusy", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("calendar.busy_count", len(busy)))
	return busy, nil
}

func (i *instrumented) CreateEvent(ctx context.Context, event Event) error {
	ctx, span := calendarTracer.Start(ctx, "calendar.insert_event", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("calendar.event_start", event.Start.Format(time.RFC3339)))

	start := time.Now()
	err := i.next.CreateEvent(ctx, event)
	i.metrics.ObserveRequest("insert_event", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return err
}
