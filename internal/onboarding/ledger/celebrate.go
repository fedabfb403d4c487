package ledger

import (
	"sync"

	"onboarding-orchestrator/internal/common/logger"
)

// Celebrator dispatches a visual effect. Calls are never deduplicated.
type Celebrator interface {
	Celebrate(kind string)
}

type CelebratorFunc func(kind string)

func (f CelebratorFunc) Celebrate(kind string) { f(kind) }

// Queue buffers celebration kinds until the step UI drains them.
type Queue struct {
	mu    sync.Mutex
	kinds []string
}

func (q *Queue) Celebrate(kind string) {
	q.mu.Lock()
	q.kinds = append(q.kinds, kind)
	q.mu.Unlock()
}

// Drain returns and clears the pending kinds in dispatch order.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.kinds
	q.kinds = nil
	return out
}

type LogCelebrator struct {
	Logger    logger.Logger
	SessionID string
}

func (c LogCelebrator) Celebrate(kind string) {
	c.Logger.Debug("celebration", map[string]interface{}{
		"sessionId": c.SessionID,
		"kind":      kind,
	})
}

// Multi fans a celebration out to every member.
type Multi []Celebrator

func (m Multi) Celebrate(kind string) {
	for _, c := range m {
		c.Celebrate(kind)
	}
}
