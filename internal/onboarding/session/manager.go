// Package session keeps one flow controller per onboarding session.
package session

import (
	"context"
	"sync"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/common/metrics"
	"onboarding-orchestrator/internal/onboarding/flow"
	"onboarding-orchestrator/internal/onboarding/ledger"

	"github.com/google/uuid"
)

// Factory builds an unstarted controller wired to celebrate through cel.
type Factory func(sessionID string, cel ledger.Celebrator) *flow.Controller

type Session struct {
	ID           string
	Controller   *flow.Controller
	Celebrations *ledger.Queue
	CreatedAt    time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager creates, resumes and evicts sessions. Evicting a session only
// drops it from memory; its snapshot stays in the store.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  Factory
	logger   logger.Logger
	idleTTL  time.Duration
	now      func() time.Time
}

func NewManager(factory Factory, log logger.Logger, idleTTL time.Duration) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Manager{
		sessions: map[string]*Session{},
		factory:  factory,
		logger:   log,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create starts a new session under a fresh id.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	return m.open(ctx, uuid.NewString(), false)
}

// Get returns the in-memory session or resumes it from its snapshot.
// Unknown ids give SESSION_NOT_FOUND.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.NewSessionNotFoundError(id)
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(m.now())
		return s, nil
	}
	return m.open(ctx, id, true)
}

func (m *Manager) open(ctx context.Context, id string, mustResume bool) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.touch(m.now())
		return s, nil
	}

	queue := &ledger.Queue{}
	cel := ledger.Multi{queue, ledger.LogCelebrator{Logger: m.logger, SessionID: id}}
	c := m.factory(id, cel)
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	if mustResume && !c.Resumed() {
		return nil, errors.NewSessionNotFoundError(id)
	}

	now := m.now()
	s := &Session{ID: id, Controller: c, Celebrations: queue, CreatedAt: now, lastSeen: now}
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))

	m.logger.Info("onboarding session opened", map[string]interface{}{
		"sessionId": id,
		"resumed":   c.Resumed(),
	})
	return s, nil
}

// Abandon restarts the session, which clears its snapshot, and forgets it.
func (m *Manager) Abandon(ctx context.Context, id string) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Controller.Restart(ctx); err != nil {
		return err
	}
	m.remove(id)
	return nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts completed sessions and those idle longer than the TTL. It
// returns the number evicted.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		phase := s.Controller.Phase()
		if phase == flow.PhaseCompleting {
			continue
		}
		idle := m.idleTTL > 0 && now.Sub(s.LastSeen()) > m.idleTTL
		if phase == flow.PhaseCompleted || idle {
			delete(m.sessions, id)
			evicted++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))

	if evicted > 0 {
		m.logger.Debug("evicted onboarding sessions", map[string]interface{}{
			"evicted":   evicted,
			"remaining": len(m.sessions),
		})
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
