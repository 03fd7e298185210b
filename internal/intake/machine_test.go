package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-intake/internal/availability"
	"github.com/wolfman30/voice-intake/internal/booking"
	"github.com/wolfman30/voice-intake/internal/calendar"
)

// Friday 2026-10-16 10:30 UTC.
var testNow = time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)

var (
	monday  = civil.Date{Year: 2026, Month: time.October, Day: 19}
	tuesday = civil.Date{Year: 2026, Month: time.October, Day: 20}
)

type harness struct {
	machine *Machine
	gateway *calendar.MemoryGateway
	replies []Reply
}

func newHarness(t *testing.T, busy ...calendar.BusyInterval) *harness {
	t.Helper()
	gw := calendar.NewMemoryGateway(busy...)
	clock := func() time.Time { return testNow }
	engine := availability.NewEngine(gw, availability.DefaultBusinessHours(),
		availability.WithClock(availability.ClockFunc(clock)))
	finalizer := booking.NewFinalizer(gw, time.UTC)
	return &harness{
		machine: NewMachine(engine, finalizer, WithClock(clock)),
		gateway: gw,
	}
}

func (h *harness) reply(_ context.Context, r Reply) {
	h.replies = append(h.replies, r)
}

func (h *harness) last(t *testing.T) Reply {
	t.Helper()
	require.NotEmpty(t, h.replies)
	return h.replies[len(h.replies)-1]
}

func (h *harness) do(t *testing.T, s *Session, action string, args map[string]any) Result {
	t.Helper()
	before := len(h.replies)
	res := h.machine.Dispatch(context.Background(), s, action, args, h.reply)
	require.Len(t, h.replies, before+1, "exactly one reply per action")
	return res
}

// sessionAt drives a new English session up to the requested stage.
func (h *harness) sessionAt(t *testing.T, stage Stage) *Session {
	t.Helper()
	s := h.machine.NewSession("sess-1")
	s.Language = LanguageEnglish
	steps := []struct {
		until  Stage
		action string
		args   map[string]any
	}{
		{StageAwaitingLastName, "submitFirstName", map[string]any{"first_name": "Lea"}},
		{StageAwaitingReason, "submitLastName", map[string]any{"last_name": "Martin"}},
		{StageAwaitingDate, "submitReason", map[string]any{"reason": "cleaning"}},
		{StageAwaitingTime, "submitDate", map[string]any{"date": "2026-10-19"}},
		{StageAwaitingConfirmation, "submitTime", map[string]any{"time": "14:00"}},
	}
	for _, st := range steps {
		if s.Stage == stage {
			break
		}
		res := h.do(t, s, st.action, st.args)
		require.NoError(t, res.Err)
		require.Equal(t, st.until, s.Stage)
	}
	require.Equal(t, stage, s.Stage)
	return s
}

func busyDay(d civil.Date) calendar.BusyInterval {
	return calendar.BusyInterval{
		Start: time.Date(d.Year, d.Month, d.Day, 9, 0, 0, 0, time.UTC),
		End:   time.Date(d.Year, d.Month, d.Day, 17, 0, 0, 0, time.UTC),
	}
}

func TestStartPublishesFirstName(t *testing.T) {
	h := newHarness(t)
	s := h.machine.NewSession("sess-1")

	res := h.machine.Start(context.Background(), s, h.reply)

	require.Len(t, h.replies, 1)
	assert.Equal(t, StageInit, res.To)
	assert.Equal(t, LanguageFrench, s.Language)
	assert.Contains(t, h.last(t).Content, "JARVIS")
	assert.Contains(t, h.last(t).Content, "Very Fresh Dentals")
	assert.Equal(t, []Action{ActionSubmitFirstName}, s.Actions)
	assert.Equal(t, []Action{ActionSubmitFirstName, ActionSwitchLanguage, ActionEndCall}, s.Published())
}

func TestSubmitFirstName(t *testing.T) {
	h := newHarness(t)
	s := h.machine.NewSession("sess-1")

	res := h.do(t, s, "submitFirstName", map[string]any{"first_name": "Lea"})

	require.NoError(t, res.Err)
	require.NotNil(t, s.Record.FirstName)
	assert.Equal(t, "Lea", *s.Record.FirstName)
	assert.Equal(t, StageAwaitingLastName, s.Stage)
	assert.ElementsMatch(t, []Action{ActionSubmitFirstName, ActionSubmitLastName}, s.Actions)
	assert.Equal(t, OutcomeOK, res.Outcome)
}

func TestFirstNameCanBeCorrected(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingLastName)

	res := h.do(t, s, "submitFirstName", map[string]any{"first_name": "Léa"})

	require.NoError(t, res.Err)
	assert.Equal(t, "Léa", *s.Record.FirstName)
	assert.Equal(t, StageAwaitingLastName, s.Stage)
}

func TestMissingFieldsStay(t *testing.T) {
	h := newHarness(t)

	s := h.sessionAt(t, StageAwaitingLastName)
	res := h.do(t, s, "submitLastName", map[string]any{})
	assert.ErrorIs(t, res.Err, ErrMissingRequiredField)
	assert.Equal(t, OutcomeRetry, res.Outcome)
	assert.Equal(t, StageAwaitingLastName, s.Stage)
	assert.Nil(t, s.Record.LastName)

	res = h.do(t, s, "submitLastName", map[string]any{"last_name": 42})
	assert.ErrorIs(t, res.Err, ErrMissingRequiredField)
	assert.Nil(t, s.Record.LastName)

	s = h.sessionAt(t, StageAwaitingReason)
	res = h.do(t, s, "submitReason", map[string]any{"reason": "  "})
	assert.ErrorIs(t, res.Err, ErrMissingRequiredField)
	assert.Equal(t, StageAwaitingReason, s.Stage)
}

func TestFirstNameMissingStaysAtInit(t *testing.T) {
	h := newHarness(t)
	s := h.machine.NewSession("sess-1")

	res := h.do(t, s, "submitFirstName", nil)

	assert.ErrorIs(t, res.Err, ErrMissingRequiredField)
	assert.Equal(t, StageInit, s.Stage)
	assert.Equal(t, []Action{ActionSubmitFirstName}, s.Actions)
	assert.Nil(t, s.Record.FirstName)
}

func TestSubmitReasonMentionsToday(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingReason)

	res := h.do(t, s, "submitReason", map[string]any{"reason": "cleaning"})

	require.NoError(t, res.Err)
	assert.Equal(t, StageAwaitingDate, s.Stage)
	assert.Equal(t, []Action{ActionSubmitDate}, s.Actions)
	assert.Contains(t, h.last(t).Content, "Friday, 2026-10-16")
}

func TestSubmitDateByLabel(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingDate)

	res := h.do(t, s, "submitDate", map[string]any{"day": "lundi"})

	require.NoError(t, res.Err)
	assert.Equal(t, StageAwaitingTime, s.Stage)
	assert.Equal(t, []Action{ActionSubmitDate, ActionSubmitTime}, s.Actions)
	require.NotNil(t, s.Record.Date)
	assert.Equal(t, monday, *s.Record.Date)
	assert.Contains(t, h.last(t).Content, "9h, 10h, 11h, 13h, 14h, 15h, 16h")
	assert.Equal(t, []int{9, 10, 11, 13, 14, 15, 16}, h.last(t).Properties[PropAvailableHours])
}

func TestSubmitDateISOWinsOverLabel(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingDate)

	res := h.do(t, s, "submitDate", map[string]any{"date": "2026-10-20", "day": "monday"})

	require.NoError(t, res.Err)
	assert.Equal(t, tuesday, *s.Record.Date)
}

func TestSubmitDateFullyBusySuggestsLaterDate(t *testing.T) {
	h := newHarness(t, busyDay(monday))
	s := h.sessionAt(t, StageAwaitingDate)

	res := h.do(t, s, "submitDate", map[string]any{"date": "2026-10-19"})

	assert.ErrorIs(t, res.Err, ErrSlotUnavailable)
	assert.Equal(t, StageAwaitingDate, s.Stage)
	assert.Equal(t, []Action{ActionSubmitDate}, s.Actions)
	assert.Nil(t, s.Record.Date)
	assert.Contains(t, h.last(t).Content, "2026-10-20")

	closest, err := civil.ParseDate(h.last(t).Properties[PropClosestDate].(string))
	require.NoError(t, err)
	assert.True(t, closest.After(monday))
}

func TestSubmitDateWeekend(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingDate)

	res := h.do(t, s, "submitDate", map[string]any{"day": "samedi"})

	assert.ErrorIs(t, res.Err, ErrSlotUnavailable)
	assert.Equal(t, "2026-10-19", h.last(t).Properties[PropClosestDate])
}

func TestSubmitDateUnresolved(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingDate)

	res := h.do(t, s, "submitDate", map[string]any{"day": "someday"})
	assert.ErrorIs(t, res.Err, availability.ErrInvalidDayLabel)
	assert.Equal(t, StageAwaitingDate, s.Stage)

	res = h.do(t, s, "submitDate", map[string]any{"date": "19/10/2026"})
	assert.ErrorIs(t, res.Err, availability.ErrInvalidDayLabel)

	res = h.do(t, s, "submitDate", map[string]any{})
	assert.ErrorIs(t, res.Err, ErrMissingRequiredField)
	assert.Nil(t, s.Record.Date)
}

func TestSubmitDateCalendarDown(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingDate)
	h.gateway.Err = errors.New("timeout")

	res := h.do(t, s, "submitDate", map[string]any{"day": "monday"})

	assert.ErrorIs(t, res.Err, calendar.ErrCalendarUnavailable)
	assert.Equal(t, OutcomeRetry, res.Outcome)
	assert.Equal(t, StageAwaitingDate, s.Stage)
}

func TestNewDateClearsTime(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingConfirmation)

	res := h.do(t, s, "submitDate", map[string]any{"date": "2026-10-20"})

	require.NoError(t, res.Err)
	assert.Equal(t, StageAwaitingTime, s.Stage)
	assert.Equal(t, tuesday, *s.Record.Date)
	assert.Nil(t, s.Record.Time)
}

func TestSubmitTime(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingTime)

	res := h.do(t, s, "submitTime", map[string]any{"time": "14:00:00"})

	require.NoError(t, res.Err)
	assert.Equal(t, StageAwaitingConfirmation, s.Stage)
	assert.ElementsMatch(t, []Action{ActionSubmitDate, ActionSubmitTime, ActionSubmitConfirmation}, s.Actions)
	assert.Equal(t, civil.Time{Hour: 14}, *s.Record.Time)
	assert.Contains(t, h.last(t).Content, "2026-10-19 at 14:00")
}

func TestSubmitTimeWithDateArgument(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingTime)

	res := h.do(t, s, "submitTime", map[string]any{"time": "09:00", "date": "2026-10-20"})

	require.NoError(t, res.Err)
	assert.Equal(t, tuesday, *s.Record.Date)
}

func TestSubmitTimeRejected(t *testing.T) {
	busy := calendar.BusyInterval{
		Start: time.Date(2026, 10, 19, 16, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 19, 16, 30, 0, 0, time.UTC),
	}
	tests := []struct {
		name string
		args map[string]any
		want error
	}{
		{"busy", map[string]any{"time": "16:00"}, ErrSlotUnavailable},
		{"lunch", map[string]any{"time": "12:00"}, ErrSlotUnavailable},
		{"bad format", map[string]any{"time": "2pm"}, ErrSlotUnavailable},
		{"bad date", map[string]any{"time": "10:00", "date": "monday"}, ErrSlotUnavailable},
		{"missing", map[string]any{}, ErrMissingRequiredField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, busy)
			s := h.sessionAt(t, StageAwaitingConfirmation)

			res := h.do(t, s, "submitTime", tt.args)

			assert.ErrorIs(t, res.Err, tt.want)
			assert.Equal(t, StageAwaitingTime, s.Stage)
			assert.Equal(t, []Action{ActionSubmitDate, ActionSubmitTime}, s.Actions)
			assert.Equal(t, civil.Time{Hour: 14}, *s.Record.Time, "previous time kept")
		})
	}
}

func TestTimeNeverStoredWithoutDate(t *testing.T) {
	h := newHarness(t)

	for _, stage := range []Stage{StageInit, StageAwaitingLastName, StageAwaitingReason, StageAwaitingDate} {
		s := h.sessionAt(t, stage)
		res := h.do(t, s, "submitTime", map[string]any{"time": "10:00"})
		assert.ErrorIs(t, res.Err, ErrActionNotAllowed)
		assert.Equal(t, OutcomeRejected, res.Outcome)
		assert.Equal(t, stage, s.Stage)
		assert.Nil(t, s.Record.Time)
	}

	s := h.sessionAt(t, StageAwaitingDate)
	s.enter(StageAwaitingTime)
	res := h.do(t, s, "submitTime", map[string]any{"time": "10:00"})
	assert.ErrorIs(t, res.Err, ErrMissingRequiredField)
	assert.Nil(t, s.Record.Time)
	assert.Equal(t, StageAwaitingDate, s.Stage)
}

func TestConfirmationFalseReopensDateAndTime(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingConfirmation)

	res := h.do(t, s, "submitConfirmation", map[string]any{"confirmation": false})

	require.NoError(t, res.Err)
	assert.Empty(t, h.gateway.Events())
	assert.Equal(t, []Action{ActionSubmitDate, ActionSubmitTime}, s.Actions)
	assert.Equal(t, monday, *s.Record.Date)
	assert.Equal(t, civil.Time{Hour: 14}, *s.Record.Time)
	assert.Nil(t, s.Booked)
}

func TestConfirmationAbsentCountsAsNo(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingConfirmation)

	h.do(t, s, "submitConfirmation", map[string]any{"confirmation": "yes"})

	assert.Empty(t, h.gateway.Events())
	assert.Equal(t, StageAwaitingTime, s.Stage)
}

func TestConfirmationAcceptsStringTrue(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingConfirmation)

	res := h.do(t, s, "submitConfirmation", map[string]any{"confirmation": "true"})

	require.NoError(t, res.Err)
	assert.Equal(t, StageCompleted, s.Stage)
	assert.Len(t, h.gateway.Events(), 1)
}

func TestConfirmationBooks(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingConfirmation)

	res := h.do(t, s, "submitConfirmation", map[string]any{"confirmation": true})

	require.NoError(t, res.Err)
	assert.Equal(t, StageCompleted, s.Stage)
	assert.Equal(t, []Action{ActionEndCall}, s.Actions)
	events := h.gateway.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Appointment with Lea Martin", events[0].Title)
	assert.Equal(t, "cleaning (Appointment scheduled by JARVIS)", events[0].Description)
	assert.Equal(t, time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC), events[0].Start)
	require.NotNil(t, s.Booked)
	assert.Equal(t, events[0], *s.Booked)
}

func TestConfirmationCalendarFailureStays(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingConfirmation)
	h.gateway.Err = errors.New("503")

	res := h.do(t, s, "submitConfirmation", map[string]any{"confirmation": true})

	assert.ErrorIs(t, res.Err, calendar.ErrCalendarUnavailable)
	assert.Equal(t, StageAwaitingConfirmation, s.Stage)
	assert.Contains(t, s.Actions, ActionSubmitConfirmation)
	assert.Nil(t, s.Booked)

	h.gateway.Err = nil
	res = h.do(t, s, "submitConfirmation", map[string]any{"confirmation": true})
	require.NoError(t, res.Err)
	assert.Equal(t, StageCompleted, s.Stage)
}

func TestSwitchLanguage(t *testing.T) {
	h := newHarness(t)
	s := h.machine.NewSession("sess-1")

	res := h.do(t, s, "switchLanguage", map[string]any{"language": "german"})
	assert.ErrorIs(t, res.Err, ErrUnsupportedLanguage)
	assert.Equal(t, StageInit, s.Stage)
	assert.Equal(t, LanguageFrench, s.Language)
	assert.Contains(t, h.last(t).Content, "Désolé")

	res = h.do(t, s, "switchLanguage", map[string]any{"language": "English"})
	require.NoError(t, res.Err)
	assert.Equal(t, StageInit, s.Stage)
	assert.Equal(t, LanguageEnglish, s.Language)
	assert.Contains(t, h.last(t).Content, "first name")
	assert.Equal(t, "english", h.last(t).Properties[PropLanguage])
}

func TestSwitchLanguageMidFlowContinuesInsteadOfAskingFirstName(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingTime)

	res := h.do(t, s, "switchLanguage", map[string]any{"language": "french"})

	require.NoError(t, res.Err)
	assert.Equal(t, StageAwaitingTime, s.Stage)
	assert.Equal(t, []Action{ActionSubmitDate, ActionSubmitTime}, s.Actions)
	assert.Equal(t, LanguageFrench, s.Language)
	assert.NotContains(t, h.last(t).Content, "prénom")
}

func TestEndCall(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingReason)

	res := h.do(t, s, "endCall", nil)

	require.NoError(t, res.Err)
	assert.True(t, s.Ended)
	assert.Equal(t, StageCompleted, s.Stage)
	assert.Equal(t, true, h.last(t).Properties[PropEndCall])
	assert.Empty(t, s.Published())

	res = h.do(t, s, "submitReason", map[string]any{"reason": "late"})
	assert.ErrorIs(t, res.Err, ErrSessionEnded)
	assert.Nil(t, s.Record.Reason)
	assert.Equal(t, "The call has ended.", h.last(t).Content)
}

func TestActionOutsideWhitelist(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingLastName)

	res := h.do(t, s, "submitDate", map[string]any{"day": "monday"})
	assert.ErrorIs(t, res.Err, ErrActionNotAllowed)
	assert.Equal(t, StageAwaitingLastName, s.Stage)
	assert.Nil(t, s.Record.Date)
	assert.Contains(t, h.last(t).Content, "submitLastName")

	res = h.do(t, s, "bookEverything", nil)
	assert.ErrorIs(t, res.Err, ErrActionNotAllowed)
	assert.Equal(t, OutcomeRejected, res.Outcome)
}

func TestSessionJSONRoundTripKeepsFlowGoing(t *testing.T) {
	h := newHarness(t)
	s := h.sessionAt(t, StageAwaitingTime)
	store := NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), s))

	loaded, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	res := h.do(t, loaded, "submitTime", map[string]any{"time": "10:00"})

	require.NoError(t, res.Err)
	assert.Equal(t, StageAwaitingConfirmation, loaded.Stage)
}

func timeOf(hour, minute int) civil.Time {
	return civil.Time{Hour: hour, Minute: minute}
}
