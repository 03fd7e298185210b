// Package intake runs the guarded conversation that collects a caller's
// details and appointment slot.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/voice-intake/internal/availability"
	"github.com/wolfman30/voice-intake/internal/booking"
	"github.com/wolfman30/voice-intake/internal/calendar"
	"github.com/wolfman30/voice-intake/internal/observability/metrics"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

var intakeTracer = otel.Tracer("voiceintake.internal.intake")

// Availability answers slot questions against the clinic calendar.
type Availability interface {
	Today() civil.Date
	AvailableHours(ctx context.Context, d civil.Date) ([]int, error)
	IsSlotAvailable(ctx context.Context, d civil.Date, t civil.Time) (bool, error)
	ClosestAvailableDate(ctx context.Context, from civil.Date) (civil.Date, error)
	ResolveWeekday(label string) (civil.Date, error)
}

// Booker writes a confirmed appointment.
type Booker interface {
	Book(ctx context.Context, req booking.Request) (calendar.Event, error)
}

const RoleSystem = "system"

// Reply property keys.
const (
	PropEndCall        = "end_call"
	PropLanguage       = "language"
	PropAvailableHours = "available_hours"
	PropClosestDate    = "closest_date"
)

// Reply is the system message pushed back into the dialogue after an action.
type Reply struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Properties map[string]any `json:"properties,omitempty"`
}

// ReplyFunc receives exactly one Reply per handled action.
type ReplyFunc func(ctx context.Context, r Reply)

// Outcome classifies a handled action.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeRetry    Outcome = "retry"
	OutcomeRejected Outcome = "rejected"
)

// Result describes what an action did to the session.
type Result struct {
	Action  Action
	From    Stage
	To      Stage
	Outcome Outcome
	Err     error
}

type step struct {
	content string
	props   map[string]any
	err     error
}

// Machine applies actions to sessions. It holds no per-session state, so one
// Machine serves every conversation; callers serialize actions per session.
type Machine struct {
	availability    Availability
	booker          Booker
	persona         Persona
	defaultLanguage Language
	logger          *logging.Logger
	metrics         *metrics.IntakeMetrics
	now             func() time.Time
}

type MachineOption func(*Machine)

func WithPersona(p Persona) MachineOption {
	return func(m *Machine) {
		if p.AssistantName != "" {
			m.persona.AssistantName = p.AssistantName
		}
		if p.ClinicName != "" {
			m.persona.ClinicName = p.ClinicName
		}
	}
}

// WithDefaultLanguage sets the language of new sessions. Unsupported values are ignored.
func WithDefaultLanguage(l Language) MachineOption {
	return func(m *Machine) {
		if l.valid() {
			m.defaultLanguage = l
		}
	}
}

func WithLogger(logger *logging.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(im *metrics.IntakeMetrics) MachineOption {
	return func(m *Machine) { m.metrics = im }
}

func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMachine(avail Availability, booker Booker, opts ...MachineOption) *Machine {
	if avail == nil {
		panic("intake: availability required")
	}
	if booker == nil {
		panic("intake: booker required")
	}
	m := &Machine{
		availability:    avail,
		booker:          booker,
		persona:         DefaultPersona(),
		defaultLanguage: LanguageFrench,
		logger:          logging.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewSession returns a fresh session in the default language.
func (m *Machine) NewSession(id string) *Session {
	return NewSession(id, m.defaultLanguage, m.now().UTC())
}

// Start sends the opening prompt and publishes the first-name action.
func (m *Machine) Start(ctx context.Context, s *Session, reply ReplyFunc) Result {
	from := s.Stage
	s.enter(StageInit)
	s.UpdatedAt = m.now().UTC()
	deliver(ctx, reply, Reply{
		Role:       RoleSystem,
		Content:    promptsFor(s.Language).greeting(m.persona, s.Language),
		Properties: map[string]any{PropLanguage: string(s.Language)},
	})
	return Result{From: from, To: s.Stage, Outcome: OutcomeOK}
}

// Dispatch decodes raw arguments and routes the named action to its handler.
func (m *Machine) Dispatch(ctx context.Context, s *Session, name string, raw map[string]any, reply ReplyFunc) Result {
	args, err := DecodeArgs(Action(name), raw)
	if err != nil {
		return m.run(ctx, s, Action(name), reply, nil)
	}
	switch a := args.(type) {
	case FirstNameArgs:
		return m.SubmitFirstName(ctx, s, a, reply)
	case LastNameArgs:
		return m.SubmitLastName(ctx, s, a, reply)
	case ReasonArgs:
		return m.SubmitReason(ctx, s, a, reply)
	case DateArgs:
		return m.SubmitDate(ctx, s, a, reply)
	case TimeArgs:
		return m.SubmitTime(ctx, s, a, reply)
	case ConfirmationArgs:
		return m.SubmitConfirmation(ctx, s, a, reply)
	case LanguageArgs:
		return m.SwitchLanguage(ctx, s, a, reply)
	default:
		return m.EndCall(ctx, s, reply)
	}
}

// SubmitFirstName stores the first name and asks for the last name. A call
// without a first name stays at Init and asks again instead of advancing with
// an empty record.
func (m *Machine) SubmitFirstName(ctx context.Context, s *Session, args FirstNameArgs, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionSubmitFirstName, reply, func(ctx context.Context, p prompts) step {
		if args.FirstName == nil {
			return step{content: p.firstNameMissing(), err: fmt.Errorf("%w: first_name", ErrMissingRequiredField)}
		}
		s.Record.FirstName = args.FirstName
		s.enter(StageAwaitingLastName)
		return step{content: p.askLastName()}
	})
}

func (m *Machine) SubmitLastName(ctx context.Context, s *Session, args LastNameArgs, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionSubmitLastName, reply, func(ctx context.Context, p prompts) step {
		if args.LastName == nil {
			return step{content: p.lastNameMissing(), err: fmt.Errorf("%w: last_name", ErrMissingRequiredField)}
		}
		s.Record.LastName = args.LastName
		s.enter(StageAwaitingReason)
		return step{content: p.askReason()}
	})
}

func (m *Machine) SubmitReason(ctx context.Context, s *Session, args ReasonArgs, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionSubmitReason, reply, func(ctx context.Context, p prompts) step {
		if args.Reason == nil {
			return step{content: p.reasonMissing(), err: fmt.Errorf("%w: reason", ErrMissingRequiredField)}
		}
		s.Record.Reason = args.Reason
		s.enter(StageAwaitingDate)
		return step{content: p.askDate(m.availability.Today())}
	})
}

func (m *Machine) SubmitDate(ctx context.Context, s *Session, args DateArgs, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionSubmitDate, reply, func(ctx context.Context, p prompts) step {
		s.enter(StageAwaitingDate)

		date, err := m.resolveDate(args)
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingRequiredField):
				return step{content: p.dateMissing(), err: err}
			case errors.Is(err, availability.ErrDayNotInWindow):
				return step{content: p.dayNotInWindow(), err: err}
			default:
				return step{content: p.dayNotRecognised(), err: err}
			}
		}

		hours, err := m.availability.AvailableHours(ctx, date)
		if err != nil {
			return step{content: p.calendarUnavailable(), err: err}
		}
		if len(hours) == 0 {
			props := map[string]any{}
			var closest *civil.Date
			if c, err := m.availability.ClosestAvailableDate(ctx, date); err == nil {
				closest = &c
				props[PropClosestDate] = c.String()
			} else {
				m.logger.ForSession(s.ID).Warn("closest available date lookup failed", "from", date.String(), "error", err)
			}
			return step{
				content: p.dateUnavailable(closest),
				props:   props,
				err:     fmt.Errorf("%w: no open hours on %s", ErrSlotUnavailable, date),
			}
		}

		s.Record.Date = &date
		s.Record.Time = nil
		s.enter(StageAwaitingTime)
		return step{content: p.askTime(date, hours), props: map[string]any{PropAvailableHours: hours}}
	})
}

// resolveDate prefers a valid ISO date over a day label.
func (m *Machine) resolveDate(args DateArgs) (civil.Date, error) {
	if args.Date != nil {
		if d, err := civil.ParseDate(*args.Date); err == nil {
			return d, nil
		}
	}
	if args.Day != nil {
		return m.availability.ResolveWeekday(*args.Day)
	}
	if args.Date != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", availability.ErrInvalidDayLabel, *args.Date)
	}
	return civil.Date{}, fmt.Errorf("%w: date or day", ErrMissingRequiredField)
}

func (m *Machine) SubmitTime(ctx context.Context, s *Session, args TimeArgs, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionSubmitTime, reply, func(ctx context.Context, p prompts) step {
		var date civil.Date
		switch {
		case args.Date != nil:
			d, err := civil.ParseDate(*args.Date)
			if err != nil {
				s.enter(StageAwaitingTime)
				return step{content: p.timeUnavailable(), err: fmt.Errorf("%w: invalid date %q", ErrSlotUnavailable, *args.Date)}
			}
			date = d
		case s.Record.Date != nil:
			date = *s.Record.Date
		default:
			s.enter(StageAwaitingDate)
			return step{content: p.timeNeedsDate(), err: fmt.Errorf("%w: date", ErrMissingRequiredField)}
		}

		s.enter(StageAwaitingTime)
		if args.Time == nil {
			return step{content: p.timeMissing(), err: fmt.Errorf("%w: time", ErrMissingRequiredField)}
		}
		t, err := availability.ParseTimeOfDay(*args.Time)
		if err != nil {
			return step{content: p.timeUnavailable(), err: fmt.Errorf("%w: %w", ErrSlotUnavailable, err)}
		}

		ok, err := m.availability.IsSlotAvailable(ctx, date, t)
		if err != nil {
			return step{content: p.calendarUnavailable(), err: err}
		}
		if !ok {
			return step{content: p.timeUnavailable(), err: fmt.Errorf("%w: %s %s", ErrSlotUnavailable, date, t)}
		}

		s.Record.Date = &date
		s.Record.Time = &t
		s.enter(StageAwaitingConfirmation)
		return step{content: p.confirmSlot(date, t)}
	})
}

func (m *Machine) SubmitConfirmation(ctx context.Context, s *Session, args ConfirmationArgs, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionSubmitConfirmation, reply, func(ctx context.Context, p prompts) step {
		if args.Confirmation == nil || !*args.Confirmation {
			s.enter(StageAwaitingTime)
			return step{content: p.notConfirmed()}
		}

		event, err := m.booker.Book(ctx, m.bookingRequest(s))
		if err != nil {
			s.enter(StageAwaitingConfirmation)
			return step{content: p.bookingFailed(), err: err}
		}
		s.Booked = &event
		s.enter(StageCompleted)
		return step{content: p.booked()}
	})
}

func (m *Machine) bookingRequest(s *Session) booking.Request {
	return booking.Request{
		SessionID: s.ID,
		FirstName: deref(s.Record.FirstName),
		LastName:  deref(s.Record.LastName),
		Reason:    deref(s.Record.Reason),
		Date:      s.Record.Date,
		Time:      s.Record.Time,
		Language:  string(s.Language),
	}
}

func (m *Machine) SwitchLanguage(ctx context.Context, s *Session, args LanguageArgs, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionSwitchLanguage, reply, func(ctx context.Context, p prompts) step {
		if args.Language == nil {
			return step{content: p.unsupportedLanguage(), err: fmt.Errorf("%w: none given", ErrUnsupportedLanguage)}
		}
		lang, err := ParseLanguage(*args.Language)
		if err != nil {
			return step{content: p.unsupportedLanguage(), err: fmt.Errorf("%w: %q", err, *args.Language)}
		}
		s.Language = lang
		return step{
			content: promptsFor(lang).languageSwitched(lang, s.Stage),
			props:   map[string]any{PropLanguage: string(lang)},
		}
	})
}

// EndCall completes the session and signals the transport to hang up.
func (m *Machine) EndCall(ctx context.Context, s *Session, reply ReplyFunc) Result {
	return m.run(ctx, s, ActionEndCall, reply, func(ctx context.Context, p prompts) step {
		s.enter(StageCompleted)
		s.Actions = nil
		s.Ended = true
		return step{content: p.goodbye(), props: map[string]any{PropEndCall: true}}
	})
}

// run guards an action against the published whitelist, applies it, and
// delivers its reply.
func (m *Machine) run(ctx context.Context, s *Session, action Action, reply ReplyFunc, apply func(context.Context, prompts) step) Result {
	ctx, span := intakeTracer.Start(ctx, "intake.action")
	defer span.End()
	span.SetAttributes(
		attribute.String("intake.session_id", s.ID),
		attribute.String("intake.action", string(action)),
		attribute.String("intake.stage", string(s.Stage)),
	)

	from := s.Stage
	p := promptsFor(s.Language)
	var st step
	switch {
	case s.Ended:
		st = step{content: p.callEnded(), err: ErrSessionEnded}
	case apply == nil || !s.Allows(action):
		st = step{content: p.actionNotAllowed(action, s.Published()), err: fmt.Errorf("%w: %s", ErrActionNotAllowed, action)}
	default:
		st = apply(ctx, p)
	}
	s.UpdatedAt = m.now().UTC()

	res := Result{Action: action, From: from, To: s.Stage, Outcome: outcomeOf(st.err), Err: st.err}
	label := string(action)
	if _, known := Spec(action); !known {
		label = "unknown"
	}
	m.metrics.ObserveAction(label, string(res.Outcome))
	m.metrics.ObserveTransition(string(from), string(s.Stage))

	logger := m.logger.ForSession(s.ID)
	if st.err != nil {
		span.RecordError(st.err)
		logger.Warn("intake action not applied", "action", label, "stage", string(s.Stage), "outcome", string(res.Outcome), "error", st.err)
	} else {
		logger.Info("intake action applied", "action", label, "from", string(from), "to", string(s.Stage))
	}

	deliver(ctx, reply, Reply{Role: RoleSystem, Content: st.content, Properties: st.props})
	return res
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrActionNotAllowed), errors.Is(err, ErrSessionEnded):
		return OutcomeRejected
	default:
		return OutcomeRetry
	}
}

func deliver(ctx context.Context, reply ReplyFunc, r Reply) {
	if reply != nil {
		reply(ctx, r)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
