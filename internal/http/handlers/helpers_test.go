package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/voice-intake/internal/availability"
	"github.com/wolfman30/voice-intake/internal/booking"
	"github.com/wolfman30/voice-intake/internal/calendar"
	"github.com/wolfman30/voice-intake/internal/dialogue"
	"github.com/wolfman30/voice-intake/internal/intake"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// Friday 2026-10-16 10:30 UTC.
var testNow = time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*intake.Service, *calendar.MemoryGateway) {
	t.Helper()
	clock := func() time.Time { return testNow }
	gw := calendar.NewMemoryGateway()
	engine := availability.NewEngine(gw, availability.DefaultBusinessHours(),
		availability.WithClock(availability.ClockFunc(clock)))
	machine := intake.NewMachine(engine, booking.NewFinalizer(gw, time.UTC),
		intake.WithClock(clock), intake.WithDefaultLanguage(intake.LanguageEnglish))
	return intake.NewService(machine, intake.NewMemorySessionStore(), logging.New("error")), gw
}

func newTestRouter(h *SessionHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Get("/sessions/ws", h.HandleStream)
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Get("/language", h.GetLanguage)
		r.Get("/tools", h.GetTools)
		r.Get("/appointment.ics", h.GetAppointmentICS)
		r.Post("/actions/{action}", h.HandleAction)
		r.Post("/utterances", h.HandleUtterance)
	})
	return r
}

// fakeConversation echoes utterances and ends the call on "bye".
type fakeConversation struct {
	svc *intake.Service
	err error

	mu        sync.Mutex
	primed    map[string]string
	forgotten []string
}

func newFakeConversation(svc *intake.Service) *fakeConversation {
	return &fakeConversation{svc: svc, primed: map[string]string{}}
}

func (f *fakeConversation) Prime(sessionID, system string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primed[sessionID] = system
}

func (f *fakeConversation) primedFor(sessionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.primed[sessionID]
}

func (f *fakeConversation) Forget(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.primed, sessionID)
	f.forgotten = append(f.forgotten, sessionID)
}

func (f *fakeConversation) forgottenSessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.forgotten...)
}

func (f *fakeConversation) Turn(ctx context.Context, sessionID, utterance string) (dialogue.Turn, error) {
	if f.err != nil {
		return dialogue.Turn{}, f.err
	}
	if utterance == "bye" {
		session, _, _, err := f.svc.Handle(ctx, sessionID, "endCall", nil)
		if err != nil {
			return dialogue.Turn{}, err
		}
		return dialogue.Turn{Text: "Goodbye.", Session: session, EndCall: true, Language: session.Language}, nil
	}
	session, err := f.svc.Get(ctx, sessionID)
	if err != nil {
		return dialogue.Turn{}, err
	}
	return dialogue.Turn{Text: "heard: " + utterance, Session: session, Language: session.Language}, nil
}
