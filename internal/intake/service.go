package intake

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"

	"github.com/wolfman30/voice-intake/pkg/logging"
)

const lockStripes = 64

// Service loads a session, applies one action, and saves it back. Actions on
// the same session are serialized.
type Service struct {
	machine *Machine
	store   SessionStore
	logger  *logging.Logger
	locks   [lockStripes]sync.Mutex
	newID   func() string
}

func NewService(machine *Machine, store SessionStore, logger *logging.Logger) *Service {
	if machine == nil {
		panic("intake: machine required")
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{machine: machine, store: store, logger: logger, newID: uuid.NewString}
}

func (s *Service) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

// Create starts a new session and returns it with its opening reply.
func (s *Service) Create(ctx context.Context) (*Session, Reply, error) {
	session := s.machine.NewSession(s.newID())
	var out Reply
	s.machine.Start(ctx, session, func(_ context.Context, r Reply) { out = r })
	if err := s.store.Save(ctx, session); err != nil {
		return nil, Reply{}, err
	}
	s.logger.ForSession(session.ID).Info("intake session created", "language", string(session.Language))
	return session, out, nil
}

// Get returns the stored session or ErrSessionNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Handle applies the named action to session id. Conversational failures are
// reported in the Result; the returned error covers storage problems only.
func (s *Service) Handle(ctx context.Context, id, action string, args map[string]any) (*Session, Reply, Result, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, Reply{}, Result{}, err
	}
	var out Reply
	res := s.machine.Dispatch(ctx, session, action, args, func(_ context.Context, r Reply) { out = r })
	if err := s.store.Save(ctx, session); err != nil {
		return nil, Reply{}, res, err
	}
	return session, out, res, nil
}
