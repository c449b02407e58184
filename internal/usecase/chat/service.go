package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sixhats/internal/domain"
)

// ErrSessionReset is returned by Submit when Reset ran while the turn was in
// flight; the turn's result is dropped.
var ErrSessionReset = errors.New("session reset during turn")

// Service is the session controller: it owns the transcript and the last
// synthesis between turns.
//
// turnMu keeps turns one at a time. mu guards only the short reads and
// writes of the store, so Snapshot and Reset never wait on a running turn.
type Service struct {
	turnMu sync.Mutex

	mu         sync.Mutex
	generation uint64

	store  domain.SessionStore
	turns  *Orchestrator
	key    string
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store domain.SessionStore, turns *Orchestrator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		turns:  turns,
		key:    domain.DefaultSession,
		logger: logger,
		now:    time.Now,
	}
}

// Submit runs a turn over the held transcript and replaces the session state
// with its result. Blank input, cancelled turns and turns overtaken by Reset
// leave the state untouched.
func (s *Service) Submit(ctx context.Context, text string) (TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return TurnResult{}, ErrEmptyInput
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	generation := s.generation
	state := s.store.Load(s.key)
	s.mu.Unlock()

	log := s.logger.With(zap.String("turn_id", uuid.NewString()))
	started := s.now()
	log.Info("turn started", zap.Int("transcript_len", len(state.Transcript)))

	res, err := s.turns.RunTurn(ctx, text, state.Transcript)
	if err != nil {
		log.Warn("turn aborted", zap.Error(err))
		return TurnResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		log.Warn("turn dropped", zap.Error(ErrSessionReset))
		return TurnResult{}, ErrSessionReset
	}
	synthesis := res.Synthesis
	s.store.Save(s.key, domain.SessionState{
		Transcript: res.Transcript,
		Synthesis:  &synthesis,
	})
	log.Info("turn finished",
		zap.Int("transcript_len", len(res.Transcript)),
		zap.Duration("elapsed", s.now().Sub(started)))

	return res, nil
}

func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.store.Clear(s.key)
	s.logger.Info("session reset")
}

func (s *Service) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(s.key)
}
