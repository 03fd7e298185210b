package intake

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/voice-intake/internal/calendar"
)

// Record is the intake data collected so far. Nil means not yet provided.
type Record struct {
	FirstName *string     `json:"first_name,omitempty"`
	LastName  *string     `json:"last_name,omitempty"`
	Reason    *string     `json:"reason,omitempty"`
	Date      *civil.Date `json:"date,omitempty"`
	Time      *civil.Time `json:"time,omitempty"`
}

// Complete reports whether every field needed for booking is set.
func (r Record) Complete() bool {
	return r.FirstName != nil && r.LastName != nil && r.Reason != nil && r.Date != nil && r.Time != nil
}

// Session is the serializable state of one conversation.
type Session struct {
	ID        string          `json:"id"`
	Stage     Stage           `json:"stage"`
	Actions   []Action        `json:"actions"`
	Language  Language        `json:"language"`
	Record    Record          `json:"record"`
	Ended     bool            `json:"ended"`
	Booked    *calendar.Event `json:"booked,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSession returns a session at the Init stage.
func NewSession(id string, lang Language, now time.Time) *Session {
	if !lang.valid() {
		lang = LanguageFrench
	}
	return &Session{
		ID:        id,
		Stage:     StageInit,
		Actions:   ActionsFor(StageInit),
		Language:  lang,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Published returns the actions the dialogue engine may call next.
func (s *Session) Published() []Action {
	if s.Ended {
		return nil
	}
	out := append([]Action(nil), s.Actions...)
	for _, a := range globalActions {
		if !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

// Allows reports whether a is in the published whitelist.
func (s *Session) Allows(a Action) bool {
	return slices.Contains(s.Published(), a)
}

// Tools returns the catalog entries of the published actions.
func (s *Session) Tools() []ActionSpec {
	var out []ActionSpec
	for _, a := range s.Published() {
		if spec, ok := Spec(a); ok {
			out = append(out, spec)
		}
	}
	return out
}

func (s *Session) enter(stage Stage) {
	s.Stage = stage
	s.Actions = ActionsFor(stage)
}
