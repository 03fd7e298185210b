package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/voice-intake/internal/calendar"
	"github.com/wolfman30/voice-intake/internal/dialogue"
	"github.com/wolfman30/voice-intake/internal/intake"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// IntakeService is the session API the handlers drive.
type IntakeService interface {
	Create(ctx context.Context) (*intake.Session, intake.Reply, error)
	Get(ctx context.Context, id string) (*intake.Session, error)
	Handle(ctx context.Context, id, action string, args map[string]any) (*intake.Session, intake.Reply, intake.Result, error)
}

// Conversation turns free-text caller utterances into intake actions.
type Conversation interface {
	Prime(sessionID, system string)
	Turn(ctx context.Context, sessionID, utterance string) (dialogue.Turn, error)
	Forget(sessionID string)
}

// SessionHandler exposes intake sessions to dialogue hosts over HTTP and
// websocket.
type SessionHandler struct {
	svc    IntakeService
	convo  Conversation
	logger *logging.Logger
}

// NewSessionHandler builds the handler. convo may be nil, in which case the
// utterance endpoints answer 501.
func NewSessionHandler(svc IntakeService, convo Conversation, logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{svc: svc, convo: convo, logger: logger}
}

type sessionResponse struct {
	Session *intake.Session     `json:"session"`
	Reply   *intake.Reply       `json:"reply,omitempty"`
	Tools   []intake.ActionSpec `json:"tools,omitempty"`
}

type actionResponse struct {
	Reply   intake.Reply    `json:"reply"`
	Session *intake.Session `json:"session"`
	Outcome intake.Outcome  `json:"outcome"`
	From    intake.Stage    `json:"from"`
	To      intake.Stage    `json:"to"`
	Error   string          `json:"error,omitempty"`
}

func newActionResponse(session *intake.Session, reply intake.Reply, res intake.Result) actionResponse {
	out := actionResponse{Reply: reply, Session: session, Outcome: res.Outcome, From: res.From, To: res.To}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// CreateSession handles POST /sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, reply, err := h.svc.Create(r.Context())
	if err != nil {
		h.logger.Error("failed to create intake session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	if h.convo != nil {
		h.convo.Prime(session.ID, reply.Content)
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: session, Reply: &reply, Tools: session.Tools()})
}

// GetSession handles GET /sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session})
}

// GetLanguage handles GET /sessions/{id}/language, polled by the audio router.
func (h *SessionHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"language":   session.Language,
		"ended":      session.Ended,
	})
}

// GetTools handles GET /sessions/{id}/tools.
func (h *SessionHandler) GetTools(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}
	tools := session.Tools()
	if tools == nil {
		tools = []intake.ActionSpec{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stage": session.Stage, "tools": tools})
}

// HandleAction handles POST /sessions/{id}/actions/{action}. The body is the
// raw argument object; an empty body means no arguments.
func (h *SessionHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArgs(r.Body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	session, reply, res, err := h.svc.Handle(r.Context(), id, chi.URLParam(r, "action"), args)
	if err != nil {
		h.writeServiceError(w, id, err)
		return
	}
	if end, _ := reply.Properties[intake.PropEndCall].(bool); end && h.convo != nil {
		h.convo.Forget(id)
	}
	writeJSON(w, http.StatusOK, newActionResponse(session, reply, res))
}

// HandleUtterance handles POST /sessions/{id}/utterances.
func (h *SessionHandler) HandleUtterance(w http.ResponseWriter, r *http.Request) {
	if h.convo == nil {
		http.Error(w, "dialogue model not configured", http.StatusNotImplemented)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	turn, err := h.convo.Turn(r.Context(), id, req.Text)
	if err != nil {
		if errors.Is(err, intake.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.ForSession(id).Error("dialogue turn failed", "error", err)
		http.Error(w, "dialogue turn failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// GetAppointmentICS handles GET /sessions/{id}/appointment.ics.
func (h *SessionHandler) GetAppointmentICS(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}
	if session.Booked == nil {
		http.Error(w, "no appointment booked", http.StatusNotFound)
		return
	}
	body, err := calendar.EncodeICS(*session.Booked, session.ID+"@voice-intake", session.UpdatedAt)
	if err != nil {
		h.logger.ForSession(session.ID).Error("failed to encode appointment", "error", err)
		http.Error(w, "failed to encode appointment", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointment.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request) (*intake.Session, bool) {
	id := chi.URLParam(r, "id")
	session, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, id, err)
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) writeServiceError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, intake.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	h.logger.ForSession(id).Error("intake session store failed", "error", err)
	http.Error(w, "session store unavailable", http.StatusInternalServerError)
}

func decodeArgs(body io.Reader) (map[string]any, error) {
	args := map[string]any{}
	if body == nil {
		return args, nil
	}
	if err := json.NewDecoder(body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// HealthCheck reports liveness.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
