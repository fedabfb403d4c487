package finalize

import (
	"context"

	"onboarding-orchestrator/internal/common/logger"
)

type namedFinalizer struct {
	name string
	f    Finalizer
}

// Chain runs finalizers in order. The first failure stops the chain,
// compensates the members that already succeeded (newest first) and is
// returned unchanged.
type Chain struct {
	members []namedFinalizer
	logger  logger.Logger
}

func NewChain(log logger.Logger) *Chain {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Chain{logger: log}
}

// Add appends f under name and returns the chain.
func (c *Chain) Add(name string, f Finalizer) *Chain {
	c.members = append(c.members, namedFinalizer{name: name, f: f})
	return c
}

func (c *Chain) Len() int { return len(c.members) }

type completedStep struct {
	member namedFinalizer
	req    Request
	res    *Result
}

func (c *Chain) Finalize(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}
	var done []completedStep

	for _, m := range c.members {
		stepReq := req
		stepReq.AccountID = result.AccountID

		res, err := m.f.Finalize(ctx, stepReq)
		if err != nil {
			c.logger.Error("finalizer failed", map[string]interface{}{
				"finalizer": m.name,
				"sessionId": req.SessionID,
				"error":     err.Error(),
			})
			c.compensate(ctx, done)
			return nil, err
		}

		result.merge(res)
		done = append(done, completedStep{member: m, req: stepReq, res: res})
		c.logger.Debug("finalizer succeeded", map[string]interface{}{
			"finalizer": m.name,
			"sessionId": req.SessionID,
		})
	}
	return result, nil
}

// compensate uses a context detached from the caller's deadline: the
// failure that triggered it is often that deadline.
func (c *Chain) compensate(ctx context.Context, done []completedStep) {
	cctx := context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		comp, ok := step.member.f.(Compensator)
		if !ok {
			continue
		}
		if err := comp.Compensate(cctx, step.req, step.res); err != nil {
			c.logger.Error("finalizer compensation failed", map[string]interface{}{
				"finalizer": step.member.name,
				"sessionId": step.req.SessionID,
				"error":     err.Error(),
			})
		}
	}
}
