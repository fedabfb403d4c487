// Package flow drives one onboarding session: role selection, forward and
// backward navigation over the applicable steps, gamification side effects,
// snapshot persistence and the final commit.
package flow

import (
	"context"
	"sync"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/common/metrics"
	"onboarding-orchestrator/internal/common/observability"
	"onboarding-orchestrator/internal/onboarding/finalize"
	"onboarding-orchestrator/internal/onboarding/formdata"
	"onboarding-orchestrator/internal/onboarding/ledger"
	"onboarding-orchestrator/internal/onboarding/snapshot"
	"onboarding-orchestrator/internal/onboarding/stepgraph"

	"go.opentelemetry.io/otel/attribute"
)

type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseRoleSelection Phase = "role_selection"
	PhaseInStep        Phase = "in_step"
	PhaseCompleting    Phase = "completing"
	PhaseCompleted     Phase = "completed"
)

// State is a copy of the controller's position.
type State struct {
	Role          stepgraph.Role `json:"role,omitempty"`
	Phase         Phase          `json:"phase"`
	CurrentStepID string         `json:"currentStepId,omitempty"`
	History       []string       `json:"history"`
	Visited       []string       `json:"visited"`
	Skipped       []string       `json:"skipped"`
	IsComplete    bool           `json:"isComplete"`
}

// Move describes the outcome of a navigation call. Moved is false for
// no-ops. Terminal reports that no applicable step follows the current one.
type Move struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Moved    bool   `json:"moved"`
	Terminal bool   `json:"terminal"`
}

// TerminalHook runs, outside the controller lock, when NextStep finds no
// further step.
type TerminalHook func(ctx context.Context, c *Controller)

// Controller is safe for concurrent use. The finalizer runs without the
// lock held so the Completing phase is observable.
type Controller struct {
	mu sync.Mutex

	sessionID string
	graph     *stepgraph.Graph
	data      *formdata.Store
	ledger    ledger.Ledger

	phase      Phase
	role       stepgraph.Role
	current    string
	history    []string
	visited    []string
	skipped    []string
	isComplete bool
	started    bool
	resumed    bool

	persister         snapshot.Persister
	finalizer         finalize.Finalizer
	celebrator        ledger.Celebrator
	guard             AdvanceGuard
	terminalHook      TerminalHook
	logger            logger.Logger
	obs               *observability.Observability
	strict            bool
	completionTimeout time.Duration
}

type Option func(*Controller)

func WithPersister(p snapshot.Persister) Option {
	return func(c *Controller) { c.persister = p }
}

func WithFinalizer(f finalize.Finalizer) Option {
	return func(c *Controller) { c.finalizer = f }
}

func WithCelebrator(cel ledger.Celebrator) Option {
	return func(c *Controller) { c.celebrator = cel }
}

// WithAdvanceGuard turns on the central advance check for NextStep.
func WithAdvanceGuard(g AdvanceGuard) Option {
	return func(c *Controller) { c.guard = g }
}

func WithTerminalHook(h TerminalHook) Option {
	return func(c *Controller) { c.terminalHook = h }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithObservability(o *observability.Observability) Option {
	return func(c *Controller) { c.obs = o }
}

// WithStrict makes orchestrator misuse return errors instead of logging.
func WithStrict(strict bool) Option {
	return func(c *Controller) { c.strict = strict }
}

func WithCompletionTimeout(d time.Duration) Option {
	return func(c *Controller) { c.completionTimeout = d }
}

func New(sessionID string, graph *stepgraph.Graph, opts ...Option) *Controller {
	c := &Controller{
		sessionID: sessionID,
		graph:     graph,
		data:      formdata.New(),
		phase:     PhaseUninitialized,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.NewNoOpLogger()
	}
	c.logger = c.logger.WithFields(map[string]interface{}{"sessionId": sessionID})
	if c.persister == nil {
		c.persister = nopPersister{}
	}
	if c.celebrator == nil {
		c.celebrator = ledger.CelebratorFunc(func(string) {})
	}
	if c.finalizer == nil {
		c.finalizer = finalize.Func(func(context.Context, finalize.Request) (*finalize.Result, error) {
			return nil, errors.NewBusinessRuleError("Account finalization is not configured", "")
		})
	}
	return c
}

func (c *Controller) SessionID() string { return c.sessionID }

// Start loads the persisted snapshot. Only the first call reads the store.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.started = true
	c.phase = PhaseRoleSelection

	snap := c.persister.Load(ctx, c.sessionID)
	if snap == nil {
		c.logger.Debug("no snapshot to resume", nil)
		return nil
	}
	if snap.Flow.IsComplete {
		c.logger.Warn("discarding snapshot of a completed onboarding", map[string]interface{}{"role": snap.Flow.Role})
		_ = c.persister.Clear(ctx, c.sessionID)
		return nil
	}

	if err := c.data.Replace(snap.FormData); err != nil {
		c.logger.Warn("snapshot form data rejected", map[string]interface{}{"error": err.Error()})
		c.data.Reset()
		_ = c.persister.Clear(ctx, c.sessionID)
		return nil
	}
	c.resumed = true
	c.ledger = snap.Ledger.Clone()
	c.visited = append([]string(nil), snap.Flow.Visited...)
	c.skipped = append([]string(nil), snap.Flow.Skipped...)

	role, err := stepgraph.ParseRole(snap.Flow.Role)
	if err != nil {
		c.logger.Info("resumed before role selection", map[string]interface{}{"fields": c.data.Len()})
		return nil
	}

	c.role = role
	c.current = snap.Flow.CurrentStepID
	c.history = append([]string(nil), snap.Flow.History...)
	c.phase = PhaseInStep
	if _, ok := c.graph.Lookup(role, c.current); !ok {
		first, _ := c.graph.First(role, c.data)
		c.current = first.ID
		c.history = []string{first.ID}
	}
	if len(c.history) == 0 || c.history[len(c.history)-1] != c.current {
		c.history = append(c.history, c.current)
	}
	if _, err := c.reconcileWith(false); err != nil {
		return err
	}
	if c.current != snap.Flow.CurrentStepID {
		c.save(ctx)
	}

	c.logger.Info("onboarding resumed", map[string]interface{}{
		"role":        string(role),
		"currentStep": c.current,
		"points":      c.ledger.Total(),
	})
	return nil
}

// Resumed reports whether Start restored a persisted snapshot.
func (c *Controller) Resumed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumed
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Role:          c.role,
		Phase:         c.phase,
		CurrentStepID: c.current,
		History:       append([]string{}, c.history...),
		Visited:       append([]string{}, c.visited...),
		Skipped:       append([]string{}, c.skipped...),
		IsComplete:    c.isComplete,
	}
}

// SelectRole chooses or changes the role. Changing it restarts step
// resolution at the new role's first applicable step; form data is kept.
// Re-selecting the current role is a no-op.
func (c *Controller) SelectRole(ctx context.Context, role stepgraph.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkNavigable(); err != nil {
		return err
	}
	if !role.Valid() {
		return errors.NewInvalidRoleError(string(role))
	}
	if c.phase == PhaseInStep && c.role == role {
		return nil
	}

	previous := c.role
	marker := map[string]interface{}{"role": string(role)}
	trial, err := formdata.FromMap(c.data.Snapshot())
	if err != nil {
		return err
	}
	if err := trial.Update(marker); err != nil {
		return err
	}
	first, ok := c.graph.First(role, trial)
	if !ok {
		return errors.NewStepNotApplicableError(string(role))
	}
	if err := c.data.Update(marker); err != nil {
		return err
	}

	c.role = role
	c.phase = PhaseInStep
	c.current = first.ID
	c.history = []string{first.ID}
	c.visited = nil
	c.skipped = nil
	c.enter(first)

	c.logger.Info("role selected", map[string]interface{}{
		"role":         string(role),
		"previousRole": string(previous),
		"firstStep":    first.ID,
	})
	c.save(ctx)
	return nil
}

// Applicable lists the steps that apply to the chosen role right now.
func (c *Controller) Applicable() []stepgraph.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.role == "" {
		return nil
	}
	return c.graph.Applicable(c.role, c.data)
}

// CurrentStep returns the current step, first moving off it if its
// applicability no longer holds.
func (c *Controller) CurrentStep() (stepgraph.Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.role == "" {
		return stepgraph.Step{}, errors.NewNoRoleSelectedError("currentStep")
	}
	step, err := c.reconcile()
	if err != nil {
		return stepgraph.Step{}, err
	}
	return step, nil
}

// NextStep moves to the next applicable step. At the end of the flow it
// reports Terminal and runs the terminal hook; completion itself is the
// caller's move.
func (c *Controller) NextStep(ctx context.Context) (Move, error) {
	c.mu.Lock()

	if err := c.checkNavigable(); err != nil {
		c.mu.Unlock()
		return Move{}, err
	}
	if c.role == "" {
		c.mu.Unlock()
		return Move{}, c.misuse("nextStep")
	}
	step, err := c.reconcile()
	if err != nil {
		c.mu.Unlock()
		return Move{}, err
	}
	if c.guard != nil {
		if err := c.guard.CanAdvance(step, c.data.Snapshot()); err != nil {
			c.mu.Unlock()
			return Move{From: step.ID, To: step.ID}, err
		}
	}

	move := c.advanceLocked(ctx, step, "next")
	hook := c.terminalHook
	c.mu.Unlock()

	if move.Terminal && hook != nil {
		hook(ctx, c)
	}
	return move, nil
}

// SkipStep records the current step as skipped and advances. Only steps
// marked Skippable may be skipped.
func (c *Controller) SkipStep(ctx context.Context) (Move, error) {
	c.mu.Lock()

	if err := c.checkNavigable(); err != nil {
		c.mu.Unlock()
		return Move{}, err
	}
	if c.role == "" {
		c.mu.Unlock()
		return Move{}, c.misuse("skipStep")
	}
	step, err := c.reconcile()
	if err != nil {
		c.mu.Unlock()
		return Move{}, err
	}
	if !step.Skippable {
		c.mu.Unlock()
		return Move{From: step.ID, To: step.ID}, errors.NewStepNotSkippableError(step.ID)
	}

	c.skipped = appendUnique(c.skipped, step.ID)
	move := c.advanceLocked(ctx, step, "skip")
	if !move.Moved {
		c.save(ctx)
	}
	hook := c.terminalHook
	c.mu.Unlock()

	if move.Terminal && hook != nil {
		hook(ctx, c)
	}
	return move, nil
}

func (c *Controller) advanceLocked(ctx context.Context, from stepgraph.Step, direction string) Move {
	next, ok := c.graph.After(c.role, from.ID, c.data)
	if !ok {
		c.logger.Debug("no step after current", map[string]interface{}{"currentStep": from.ID})
		c.obs.RecordNavigation(ctx, string(c.role), direction, false)
		return Move{From: from.ID, To: from.ID, Terminal: true}
	}

	c.current = next.ID
	c.history = append(c.history, next.ID)
	c.enter(next)
	metrics.StepTransitions.WithLabelValues(string(c.role), direction).Inc()
	c.obs.RecordNavigation(ctx, string(c.role), direction, true)
	c.save(ctx)
	return Move{From: from.ID, To: next.ID, Moved: true}
}

// PreviousStep pops history back to the most recent distinct entry that is
// still applicable. With nothing left to pop it is a no-op.
func (c *Controller) PreviousStep(ctx context.Context) (Move, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkNavigable(); err != nil {
		return Move{}, err
	}
	if c.role == "" {
		return Move{}, c.misuse("previousStep")
	}
	if _, err := c.reconcile(); err != nil {
		return Move{}, err
	}

	from := c.current
	h := c.history
	for len(h) > 1 {
		h = h[:len(h)-1]
		id := h[len(h)-1]
		if id == from {
			continue
		}
		step, ok := c.graph.Lookup(c.role, id)
		if !ok || !step.IsApplicable(c.data) {
			continue
		}

		c.history = append([]string(nil), h...)
		c.current = id
		metrics.StepTransitions.WithLabelValues(string(c.role), "previous").Inc()
		c.obs.RecordNavigation(ctx, string(c.role), "previous", true)
		c.save(ctx)
		return Move{From: from, To: id, Moved: true}, nil
	}

	c.obs.RecordNavigation(ctx, string(c.role), "previous", false)
	return Move{From: from, To: from}, nil
}

// CanAdvance runs the configured advance guard against the current step.
// Without a guard it always allows.
func (c *Controller) CanAdvance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.role == "" {
		return errors.NewNoRoleSelectedError("canAdvance")
	}
	if c.guard == nil {
		return nil
	}
	step, err := c.reconcile()
	if err != nil {
		return err
	}
	return c.guard.CanAdvance(step, c.data.Snapshot())
}

// UpdateFormData merges partial into the form data and saves.
func (c *Controller) UpdateFormData(ctx context.Context, partial map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseCompleted {
		return errors.NewFlowCompletedError()
	}
	if err := c.data.Update(partial); err != nil {
		return errors.NewInvalidRequestError(err.Error())
	}
	c.save(ctx)
	return nil
}

// Get reads a form value by dotted path.
func (c *Controller) Get(path string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Get(path)
}

// FormData returns a deep copy of the form data.
func (c *Controller) FormData() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Snapshot()
}

// AwardPoints appends a ledger entry and returns the new total. After
// completion the ledger still changes in memory but is not persisted.
func (c *Controller) AwardPoints(ctx context.Context, amount int, reason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.awardLocked(amount, reason)
	c.save(ctx)
	return total
}

// UnlockAchievement reports whether id was newly unlocked.
func (c *Controller) UnlockAchievement(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := c.unlockLocked(id)
	if added {
		c.save(ctx)
	}
	return added
}

// TriggerCelebration dispatches a visual effect. It touches no state.
func (c *Controller) TriggerCelebration(kind string) {
	c.celebrator.Celebrate(kind)
}

func (c *Controller) Points() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Total()
}

// Ledger returns a copy of the gamification ledger.
func (c *Controller) Ledger() ledger.Ledger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Clone()
}

func (c *Controller) awardLocked(amount int, reason string) int {
	total := c.ledger.AwardPoints(amount, reason)
	if amount > 0 {
		metrics.PointsAwarded.WithLabelValues(string(c.role)).Add(float64(amount))
	}
	return total
}

func (c *Controller) unlockLocked(id string) bool {
	added := c.ledger.Unlock(id)
	if added {
		metrics.AchievementsUnlocked.WithLabelValues(id).Inc()
	}
	return added
}

// Restart wipes form data, ledger and position, clears the persisted
// snapshot and returns to role selection.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseCompleting {
		return errors.NewCompletionInProgressError()
	}

	c.data.Reset()
	c.ledger.Reset()
	c.role = ""
	c.current = ""
	c.history = nil
	c.visited = nil
	c.skipped = nil
	c.isComplete = false
	c.phase = PhaseRoleSelection
	c.started = true

	if err := c.persister.Clear(ctx, c.sessionID); err != nil {
		c.logger.Warn("failed to clear snapshot on restart", map[string]interface{}{"error": err.Error()})
	}
	c.logger.Info("onboarding restarted", nil)
	return nil
}

// Report lists applicable steps the user has neither entered nor skipped.
type Report struct {
	Missing []string `json:"missing"`
}

func (r Report) Complete() bool { return len(r.Missing) == 0 }

// Completeness is the structural completion check.
func (c *Controller) Completeness() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completenessLocked()
}

func (c *Controller) completenessLocked() Report {
	visited := make(map[string]bool, len(c.visited)+len(c.skipped))
	for _, id := range c.visited {
		visited[id] = true
	}
	for _, id := range c.skipped {
		visited[id] = true
	}

	report := Report{Missing: []string{}}
	for _, step := range c.graph.Applicable(c.role, c.data) {
		if !visited[step.ID] {
			report.Missing = append(report.Missing, step.ID)
		}
	}
	return report
}

// CompleteOnboarding hands the committed onboarding to the finalizer. On
// failure the controller returns to the same step with data intact and the
// error is a *CompletionError carrying the collaborator's message.
//
// It may be called from any step, not only the last applicable one. The
// structural check is advisory: unvisited steps are logged, never enforced,
// because the calling step's own validation is the gate. Callers wanting the
// report first use Completeness.
func (c *Controller) CompleteOnboarding(ctx context.Context) (*finalize.Result, error) {
	c.mu.Lock()
	switch c.phase {
	case PhaseCompleting:
		c.mu.Unlock()
		return nil, errors.NewCompletionInProgressError()
	case PhaseCompleted:
		c.mu.Unlock()
		return nil, errors.NewFlowCompletedError()
	}
	if c.role == "" {
		c.mu.Unlock()
		return nil, errors.NewNoRoleSelectedError("completeOnboarding")
	}
	if _, err := c.reconcile(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.phase = PhaseCompleting
	stepID := c.current
	role := c.role
	report := c.completenessLocked()
	req := finalize.Request{
		SessionID:    c.sessionID,
		Role:         role,
		FormData:     c.data.Snapshot(),
		Points:       c.ledger.Total(),
		Achievements: append([]string{}, c.ledger.Achievements...),
	}
	c.mu.Unlock()

	if !report.Complete() {
		c.logger.Warn("completing with unvisited steps", map[string]interface{}{
			"role":    string(role),
			"missing": report.Missing,
		})
	}

	if c.completionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.completionTimeout)
		defer cancel()
	}
	ctx, end := c.obs.Tracing().StartSpan(ctx, "onboarding.complete",
		attribute.String("session.id", c.sessionID),
		attribute.String("onboarding.role", string(role)),
	)

	started := time.Now()
	res, err := c.finalizer.Finalize(ctx, req)
	elapsed := time.Since(started)
	end(err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.phase = PhaseInStep
		c.current = stepID
		metrics.CompletionDuration.WithLabelValues(string(role), "failure").Observe(elapsed.Seconds())
		c.obs.RecordCompletion(ctx, elapsed, string(role), "failure")
		c.logger.Error("onboarding completion failed", map[string]interface{}{
			"role":      string(role),
			"step":      stepID,
			"errorCode": string(errors.CodeOf(err)),
			"error":     err.Error(),
		})
		return nil, &CompletionError{Err: err}
	}
	if res == nil {
		res = &finalize.Result{}
	}

	if clearErr := c.persister.Clear(ctx, c.sessionID); clearErr != nil {
		c.logger.Warn("failed to clear snapshot after completion", map[string]interface{}{"error": clearErr.Error()})
	}
	c.phase = PhaseCompleted
	c.isComplete = true
	metrics.CompletionDuration.WithLabelValues(string(role), "success").Observe(elapsed.Seconds())
	c.obs.RecordCompletion(ctx, elapsed, string(role), "success")
	c.logger.Info("onboarding completed", map[string]interface{}{
		"role":      string(role),
		"accountId": res.AccountID,
		"points":    req.Points,
		"duration":  elapsed.String(),
	})
	return res, nil
}

// checkNavigable rejects navigation while completing or after completion.
func (c *Controller) checkNavigable() error {
	switch c.phase {
	case PhaseCompleting:
		return errors.NewCompletionInProgressError()
	case PhaseCompleted:
		return errors.NewFlowCompletedError()
	}
	return nil
}

func (c *Controller) misuse(op string) error {
	err := errors.NewNoRoleSelectedError(op)
	if c.strict {
		return err
	}
	c.logger.Warn("navigation before role selection ignored", map[string]interface{}{"operation": op})
	return nil
}

// reconcile keeps the current step applicable. An inapplicable current step
// is replaced by the nearest applicable step after it, else before it.
func (c *Controller) reconcile() (stepgraph.Step, error) {
	return c.reconcileWith(c.strict)
}

// reconcileWith repairs the position and reports the repair as an error only
// when strict is set. Resume always repairs quietly.
func (c *Controller) reconcileWith(strict bool) (stepgraph.Step, error) {
	step, ok := c.graph.Lookup(c.role, c.current)
	if ok && step.IsApplicable(c.data) {
		return step, nil
	}

	replacement, found := c.graph.After(c.role, c.current, c.data)
	if !found {
		replacement, found = c.graph.Before(c.role, c.current, c.data)
	}
	if !found {
		replacement, found = c.graph.First(c.role, c.data)
	}

	c.logger.Error("current step not applicable", map[string]interface{}{
		"errorCode":   string(errors.ErrCodeStepNotApplicable),
		"role":        string(c.role),
		"step":        c.current,
		"replacement": replacement.ID,
	})
	notApplicable := errors.NewStepNotApplicableError(c.current)
	if !found {
		return stepgraph.Step{}, notApplicable
	}

	c.current = replacement.ID
	if len(c.history) == 0 || c.history[len(c.history)-1] != replacement.ID {
		c.history = append(c.history, replacement.ID)
	}
	c.visited = appendUnique(c.visited, replacement.ID)

	if strict {
		return stepgraph.Step{}, notApplicable
	}
	return replacement, nil
}

// enter marks step visited and runs its OnEnter hook. Hooks run on forward
// entry only.
func (c *Controller) enter(step stepgraph.Step) {
	c.visited = appendUnique(c.visited, step.ID)
	if step.OnEnter != nil {
		step.OnEnter(lockedEffects{c})
	}
}

// save writes the snapshot. A completed flow is never written back.
func (c *Controller) save(ctx context.Context) {
	if c.phase == PhaseCompleted {
		return
	}
	_ = c.persister.Save(ctx, c.sessionID, c.snapshotLocked())
}

func (c *Controller) snapshotLocked() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		SessionID: c.sessionID,
		Flow: snapshot.FlowState{
			Role:          string(c.role),
			History:       append([]string{}, c.history...),
			Visited:       append([]string{}, c.visited...),
			Skipped:       append([]string{}, c.skipped...),
			CurrentStepID: c.current,
			IsComplete:    c.isComplete,
		},
		FormData: c.data.Snapshot(),
		Ledger:   c.ledger.Clone(),
	}
}

// lockedEffects gives OnEnter hooks access to the ledger while the
// controller lock is already held.
type lockedEffects struct {
	c *Controller
}

func (e lockedEffects) AwardPoints(amount int, reason string) int {
	return e.c.awardLocked(amount, reason)
}

func (e lockedEffects) UnlockAchievement(id string) bool {
	return e.c.unlockLocked(id)
}

func (e lockedEffects) TriggerCelebration(kind string) {
	e.c.celebrator.Celebrate(kind)
}

type nopPersister struct{}

func (nopPersister) Save(context.Context, string, *snapshot.Snapshot) error { return nil }
func (nopPersister) Load(context.Context, string) *snapshot.Snapshot        { return nil }
func (nopPersister) Clear(context.Context, string) error                    { return nil }

func appendUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}
