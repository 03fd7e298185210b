package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/voice-intake/internal/intake"
)

// StreamInbound is a frame sent by the dialogue host.
type StreamInbound struct {
	Type   string         `json:"type"` // "action", "utterance", "ping"
	Action string         `json:"action,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// StreamOutbound is a frame pushed to the dialogue host.
type StreamOutbound struct {
	Type      string          `json:"type"` // "session", "reply", "end", "error", "pong"
	SessionID string          `json:"session_id,omitempty"`
	Session   *intake.Session `json:"session,omitempty"`
	Reply     *intake.Reply   `json:"reply,omitempty"`
	Outcome   intake.Outcome  `json:"outcome,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// HandleStream handles GET /sessions/ws. The session query parameter resumes
// an existing session; without it a new session is started.
func (h *SessionHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveStream(r.Context(), conn, r.URL.Query().Get("session"))
	}).ServeHTTP(w, r)
}

func (h *SessionHandler) serveStream(ctx context.Context, conn *websocket.Conn, sessionID string) {
	var (
		session *intake.Session
		opening *intake.Reply
		err     error
	)
	if sessionID == "" {
		var reply intake.Reply
		session, reply, err = h.svc.Create(ctx)
		if err == nil {
			opening = &reply
			if h.convo != nil {
				h.convo.Prime(session.ID, reply.Content)
			}
		}
	} else {
		session, err = h.svc.Get(ctx, sessionID)
	}
	if err != nil {
		text := "session unavailable"
		if errors.Is(err, intake.ErrSessionNotFound) {
			text = "session not found"
		}
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "error", Text: text})
		return
	}

	logger := h.logger.ForSession(session.ID)
	if h.convo != nil {
		defer h.convo.Forget(session.ID)
	}
	_ = websocket.JSON.Send(conn, StreamOutbound{Type: "session", SessionID: session.ID, Session: session})
	if opening != nil {
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "reply", SessionID: session.ID, Reply: opening, Outcome: intake.OutcomeOK})
	}
	logger.Info("intake stream opened")

	for {
		var msg StreamInbound
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			logger.Debug("intake stream closed", "error", err)
			return
		}

		var end bool
		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, StreamOutbound{Type: "pong"})
			continue
		case "action":
			end = h.streamAction(ctx, conn, session.ID, msg)
		case "utterance":
			end = h.streamUtterance(ctx, conn, session.ID, msg.Text)
		default:
			continue
		}
		if end {
			_ = websocket.JSON.Send(conn, StreamOutbound{Type: "end", SessionID: session.ID})
			logger.Info("intake stream ended by call termination")
			return
		}
	}
}

func (h *SessionHandler) streamAction(ctx context.Context, conn *websocket.Conn, id string, msg StreamInbound) bool {
	if msg.Args == nil {
		msg.Args = map[string]any{}
	}
	session, reply, res, err := h.svc.Handle(ctx, id, msg.Action, msg.Args)
	if err != nil {
		h.logger.ForSession(id).Error("intake stream action failed", "action", msg.Action, "error", err)
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "error", SessionID: id, Text: "action failed"})
		return false
	}
	_ = websocket.JSON.Send(conn, StreamOutbound{Type: "reply", SessionID: id, Session: session, Reply: &reply, Outcome: res.Outcome})
	end, _ := reply.Properties[intake.PropEndCall].(bool)
	return end
}

func (h *SessionHandler) streamUtterance(ctx context.Context, conn *websocket.Conn, id, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if h.convo == nil {
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "error", SessionID: id, Text: "dialogue model not configured"})
		return false
	}
	turn, err := h.convo.Turn(ctx, id, text)
	if err != nil {
		h.logger.ForSession(id).Error("intake stream turn failed", "error", err)
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "error", SessionID: id, Text: "dialogue turn failed"})
		return false
	}
	_ = websocket.JSON.Send(conn, StreamOutbound{Type: "reply", SessionID: id, Session: turn.Session, Text: turn.Text})
	return turn.EndCall
}
