package dialogue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/generative-ai-go/genai"

	"github.com/wolfman30/voice-intake/internal/intake"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

const (
	defaultMaxCalls = 6
	turnStripes     = 64
)

// Intake is the part of intake.Service the driver needs.
type Intake interface {
	Get(ctx context.Context, id string) (*intake.Session, error)
	Handle(ctx context.Context, id, action string, args map[string]any) (*intake.Session, intake.Reply, intake.Result, error)
}

// Turn is the outcome of one caller utterance.
type Turn struct {
	Text     string          `json:"text"`
	Session  *intake.Session `json:"session"`
	Actions  []intake.Result `json:"-"`
	EndCall  bool            `json:"end_call"`
	Language intake.Language `json:"language"`
}

// Driver feeds caller utterances to the model and executes the intake
// actions it calls until it answers in text. Turns on the same session are
// serialized.
type Driver struct {
	model    Model
	intake   Intake
	logger   *logging.Logger
	maxCalls int
	turns    [turnStripes]sync.Mutex

	mu           sync.Mutex
	instructions map[string]string
}

func NewDriver(model Model, svc Intake, logger *logging.Logger) *Driver {
	if model == nil || svc == nil {
		panic("dialogue: model and intake service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Driver{
		model:        model,
		intake:       svc,
		logger:       logger,
		maxCalls:     defaultMaxCalls,
		instructions: make(map[string]string),
	}
}

// Prime records the system message the next turn starts from, usually the
// opening reply of a new session.
func (d *Driver) Prime(sessionID, system string) {
	d.mu.Lock()
	d.instructions[sessionID] = system
	d.mu.Unlock()
}

func (d *Driver) instruction(sessionID string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.instructions[sessionID]
}

// Forget drops the system message and chat history kept for a session.
func (d *Driver) Forget(sessionID string) {
	d.mu.Lock()
	delete(d.instructions, sessionID)
	d.mu.Unlock()
	d.model.Forget(sessionID)
}

func (d *Driver) turnLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &d.turns[h.Sum32()%turnStripes]
}

// Turn runs one caller utterance through the model. When the model ends the
// call, the session's dialogue state is released.
func (d *Driver) Turn(ctx context.Context, sessionID, utterance string) (Turn, error) {
	lock := d.turnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := d.intake.Get(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}
	logger := d.logger.ForSession(sessionID)

	parts, err := d.model.Send(ctx, sessionID, Tools(session.Tools()), d.instruction(sessionID), genai.Text(utterance))
	if err != nil {
		return Turn{}, err
	}

	turn := Turn{Session: session}
	for calls := 0; ; {
		pending := functionCalls(parts)
		if len(pending) == 0 {
			break
		}
		if calls+len(pending) > d.maxCalls {
			return Turn{}, fmt.Errorf("dialogue: model exceeded %d function calls in one turn", d.maxCalls)
		}
		calls += len(pending)

		responses := make([]genai.Part, 0, len(pending))
		for _, fc := range pending {
			var reply intake.Reply
			var res intake.Result
			session, reply, res, err = d.intake.Handle(ctx, sessionID, fc.Name, fc.Args)
			if err != nil {
				return Turn{}, err
			}
			logger.Debug("model called intake action", "action", fc.Name, "outcome", string(res.Outcome))
			turn.Actions = append(turn.Actions, res)
			if end, _ := reply.Properties[intake.PropEndCall].(bool); end {
				turn.EndCall = true
			}
			d.Prime(sessionID, reply.Content)
			responses = append(responses, genai.FunctionResponse{
				Name:     fc.Name,
				Response: map[string]any{"content": reply.Content, "outcome": string(res.Outcome)},
			})
		}

		parts, err = d.model.Send(ctx, sessionID, Tools(session.Tools()), d.instruction(sessionID), responses...)
		if err != nil {
			return Turn{}, err
		}
	}

	turn.Session = session
	turn.Language = session.Language
	turn.Text = text(parts)
	if turn.EndCall {
		d.Forget(sessionID)
		logger.Info("dialogue state released after call end")
	}
	return turn, nil
}
