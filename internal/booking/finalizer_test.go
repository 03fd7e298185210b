package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-intake/internal/calendar"
	"github.com/wolfman30/voice-intake/internal/observability/metrics"
)

type recorderFunc func(ctx context.Context, appt Appointment) error

func (f recorderFunc) Record(ctx context.Context, appt Appointment) error { return f(ctx, appt) }

func completeRequest() Request {
	d := civil.Date{Year: 2026, Month: time.October, Day: 19}
	t := civil.Time{Hour: 14}
	return Request{
		SessionID: "sess-1",
		FirstName: "Lea",
		LastName:  "Martin",
		Reason:    "cleaning",
		Date:      &d,
		Time:      &t,
		Language:  "french",
	}
}

func TestBookCreatesEvent(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	f := NewFinalizer(gw, time.UTC)

	event, err := f.Book(context.Background(), completeRequest())
	require.NoError(t, err)

	assert.Equal(t, "Appointment with Lea Martin", event.Title)
	assert.Equal(t, "cleaning (Appointment scheduled by JARVIS)", event.Description)
	assert.Equal(t, time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC), event.Start)
	assert.Equal(t, time.Hour, event.End.Sub(event.Start))
	assert.Equal(t, []calendar.Event{event}, gw.Events())
}

func TestBookUsesLocationDurationAndSuffix(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	gw := calendar.NewMemoryGateway()
	f := NewFinalizer(gw, paris, WithDuration(30*time.Minute), WithDescriptionSuffix(" (booked by phone) "))

	event, err := f.Book(context.Background(), completeRequest())
	require.NoError(t, err)

	assert.Equal(t, paris, event.Start.Location())
	assert.Equal(t, 14, event.Start.Hour())
	assert.Equal(t, 30*time.Minute, event.End.Sub(event.Start))
	assert.Equal(t, "cleaning (booked by phone)", event.Description)
}

func TestBookRejectsIncompleteRequest(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	f := NewFinalizer(gw, time.UTC)

	req := completeRequest()
	req.LastName = " "
	req.Time = nil

	_, err := f.Book(context.Background(), req)
	require.ErrorIs(t, err, ErrIncompleteRequest)
	assert.Contains(t, err.Error(), "last_name")
	assert.Contains(t, err.Error(), "time")
	assert.Empty(t, gw.Events())
}

func TestBookGatewayFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewIntakeMetrics(reg)
	gw := calendar.NewMemoryGateway()
	gw.Err = errors.New("503")
	ledgerCalled := false
	f := NewFinalizer(gw, time.UTC, WithMetrics(m), WithLedger(recorderFunc(func(context.Context, Appointment) error {
		ledgerCalled = true
		return nil
	})))

	_, err := f.Book(context.Background(), completeRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrCalendarUnavailable)
	assert.False(t, ledgerCalled)
	assert.Equal(t, float64(1), bookingCount(t, reg, "failed"))
}

func TestBookLedgerFailureIsNotSurfaced(t *testing.T) {
	gw := calendar.NewMemoryGateway()
	var recorded Appointment
	f := NewFinalizer(gw, time.UTC, WithLedger(recorderFunc(func(_ context.Context, appt Appointment) error {
		recorded = appt
		return errors.New("db down")
	})))

	event, err := f.Book(context.Background(), completeRequest())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", recorded.SessionID)
	assert.Equal(t, event.Start, recorded.StartsAt)
	assert.Equal(t, "french", recorded.Language)
	assert.Len(t, gw.Events(), 1)
}

func bookingCount(t *testing.T, reg *prometheus.Registry, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "intake_bookings_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "status" && label.GetValue() == status {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
