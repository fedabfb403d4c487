package flow

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/onboarding/finalize"
	"onboarding-orchestrator/internal/onboarding/formdata"
	"onboarding-orchestrator/internal/onboarding/ledger"
	"onboarding-orchestrator/internal/onboarding/snapshot"
	"onboarding-orchestrator/internal/onboarding/stepgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func newTestController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewTestLogger(t))}, opts...)
	c := New("sess-1", stepgraph.Default(), opts...)
	require.NoError(t, c.Start(context.Background()))
	return c
}

func newAdapter(t *testing.T, store snapshot.Store) *snapshot.Adapter {
	t.Helper()
	return snapshot.NewAdapter(store, logger.NewTestLogger(t), snapshot.WithKeyPrefix("onboarding:snapshot:"))
}

func currentID(t *testing.T, c *Controller) string {
	t.Helper()
	step, err := c.CurrentStep()
	require.NoError(t, err)
	return step.ID
}

func advanceTo(t *testing.T, c *Controller, id string) {
	t.Helper()
	for i := 0; i < 40; i++ {
		if currentID(t, c) == id {
			return
		}
		move, err := c.NextStep(context.Background())
		require.NoError(t, err)
		require.False(t, move.Terminal, "reached the end before %s", id)
	}
	t.Fatalf("step %s never reached", id)
}

func stepIDs(steps []stepgraph.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

// ==========================
// Role selection and misuse
// ==========================

func TestController_StartsAtRoleSelection(t *testing.T) {
	c := newTestController(t)

	assert.Equal(t, PhaseRoleSelection, c.Phase())
	_, err := c.CurrentStep()
	assert.True(t, stderrors.Is(err, ErrNoRoleSelected))
}

func TestController_NavigationBeforeRole(t *testing.T) {
	t.Run("lenient logs and ignores", func(t *testing.T) {
		c := newTestController(t)

		move, err := c.NextStep(context.Background())
		require.NoError(t, err)
		assert.False(t, move.Moved)

		move, err = c.PreviousStep(context.Background())
		require.NoError(t, err)
		assert.False(t, move.Moved)
		assert.Equal(t, PhaseRoleSelection, c.Phase())
	})

	t.Run("strict returns error", func(t *testing.T) {
		c := newTestController(t, WithStrict(true))

		_, err := c.NextStep(context.Background())
		assert.True(t, stderrors.Is(err, ErrNoRoleSelected))
		_, err = c.SkipStep(context.Background())
		assert.True(t, stderrors.Is(err, ErrNoRoleSelected))
	})
}

func TestController_SelectRole(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)

	assert.True(t, stderrors.Is(c.SelectRole(ctx, "pilot"), ErrInvalidRole))

	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	assert.Equal(t, PhaseInStep, c.Phase())
	assert.Equal(t, "personal-info", currentID(t, c))
	role, _ := c.Get("role")
	assert.Equal(t, "worker", role)

	require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"email": "a@example.com"}))
	_, err := c.NextStep(ctx)
	require.NoError(t, err)

	// same role again keeps position
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	assert.Equal(t, "contact-details", currentID(t, c))

	// a new role restarts step resolution and keeps data
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleSponsor))
	state := c.State()
	assert.Equal(t, stepgraph.RoleSponsor, state.Role)
	assert.Equal(t, "household-info", state.CurrentStepID)
	assert.Equal(t, []string{"household-info"}, state.History)
	email, _ := c.Get("email")
	assert.Equal(t, "a@example.com", email)
}

func TestController_SelectRoleWithoutApplicableStepLeavesDataUntouched(t *testing.T) {
	ctx := context.Background()
	never := func(formdata.Reader) bool { return false }
	graph, err := stepgraph.New(map[stepgraph.Role][]stepgraph.Step{
		stepgraph.RoleWorker:  {{ID: "locked", ComponentKey: "Locked", Applicable: never}},
		stepgraph.RoleSponsor: {{ID: "household-info", ComponentKey: "HouseholdInfo"}},
		stepgraph.RoleAgency:  {{ID: "agency-info", ComponentKey: "AgencyInfo"}},
	})
	require.NoError(t, err)

	c := New("sess-1", graph, WithLogger(logger.NewTestLogger(t)))
	require.NoError(t, c.Start(ctx))

	err = c.SelectRole(ctx, stepgraph.RoleWorker)
	assert.True(t, stderrors.Is(err, ErrStepNotApplicable))
	_, ok := c.Get("role")
	assert.False(t, ok)
	assert.Equal(t, PhaseRoleSelection, c.Phase())

	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleSponsor))
	err = c.SelectRole(ctx, stepgraph.RoleWorker)
	assert.True(t, stderrors.Is(err, ErrStepNotApplicable))

	role, _ := c.Get("role")
	assert.Equal(t, "sponsor", role)
	assert.Equal(t, "household-info", c.State().CurrentStepID)
}

// ==========================
// Navigation
// ==========================

func TestController_ForwardAndBack(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))

	move, err := c.PreviousStep(ctx)
	require.NoError(t, err)
	assert.False(t, move.Moved, "history exhausted is a no-op")

	advanceTo(t, c, "experience-level")
	state := c.State()
	assert.Equal(t, []string{"personal-info", "contact-details", "phone-verification", "nationality-languages", "experience-level"}, state.History)
	assert.Equal(t, state.History, state.Visited)

	move, err = c.PreviousStep(ctx)
	require.NoError(t, err)
	assert.Equal(t, Move{From: "experience-level", To: "nationality-languages", Moved: true}, move)

	// visited is append-only
	assert.Len(t, c.State().Visited, 5)
	assert.Len(t, c.State().History, 4)
}

func TestController_NoExperienceDropsCVSection(t *testing.T) {
	ctx := context.Background()
	graph := stepgraph.Default()
	c := newTestController(t)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	advanceTo(t, c, "experience-level")

	require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"experience_level": stepgraph.NoExperience}))

	ids := stepIDs(graph.Applicable(stepgraph.RoleWorker, c.data))
	assert.NotContains(t, ids, "work-experience")
	assert.NotContains(t, ids, "employment-reference")
	assert.NotContains(t, ids, "verify-both-sides")

	move, err := c.NextStep(ctx)
	require.NoError(t, err)
	assert.Equal(t, "skills", move.To)
}

func TestController_BackNavigationSkipsInapplicableSteps(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"experience_level": "Experienced"}))
	advanceTo(t, c, "skills")
	assert.Contains(t, c.State().History, "verify-both-sides")

	require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"experience_level": stepgraph.NoExperience}))

	move, err := c.PreviousStep(ctx)
	require.NoError(t, err)
	assert.Equal(t, "experience-level", move.To)
	assert.Equal(t, "experience-level", currentID(t, c))
}

func TestController_ReconcilesInapplicableCurrentStep(t *testing.T) {
	ctx := context.Background()

	t.Run("lenient moves forward", func(t *testing.T) {
		c := newTestController(t)
		require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
		advanceTo(t, c, "work-experience")

		require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"experience_level": stepgraph.NoExperience}))
		assert.Equal(t, "skills", currentID(t, c))
	})

	t.Run("strict reports", func(t *testing.T) {
		c := newTestController(t, WithStrict(true))
		require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
		advanceTo(t, c, "work-experience")

		require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"experience_level": stepgraph.NoExperience}))
		_, err := c.CurrentStep()
		assert.True(t, stderrors.Is(err, ErrStepNotApplicable))

		// state was still repaired
		assert.Equal(t, "skills", c.State().CurrentStepID)
	})
}

func TestController_SkipStep(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))

	_, err := c.SkipStep(ctx)
	assert.True(t, stderrors.Is(err, ErrStepNotSkippable))

	advanceTo(t, c, "verify-both-sides")
	move, err := c.SkipStep(ctx)
	require.NoError(t, err)
	assert.Equal(t, "skills", move.To)
	assert.Equal(t, []string{"verify-both-sides"}, c.State().Skipped)
}

func TestController_TerminalHookAndEnterEffects(t *testing.T) {
	ctx := context.Background()
	queue := &ledger.Queue{}
	var hookCalls int
	var hookResult *finalize.Result

	c := newTestController(t,
		WithCelebrator(queue),
		WithFinalizer(finalize.Func(func(ctx context.Context, req finalize.Request) (*finalize.Result, error) {
			return &finalize.Result{AccountID: "acc-1"}, nil
		})),
		WithTerminalHook(func(ctx context.Context, c *Controller) {
			hookCalls++
			res, err := c.CompleteOnboarding(ctx)
			require.NoError(t, err)
			hookResult = res
		}),
	)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleAgency))
	advanceTo(t, c, "review")

	led := c.Ledger()
	assert.True(t, led.Has("agency-profile-ready"))
	assert.Equal(t, []string{stepgraph.CelebrationSparkle, stepgraph.CelebrationConfetti}, queue.Drain())

	move, err := c.NextStep(ctx)
	require.NoError(t, err)
	assert.True(t, move.Terminal)
	assert.False(t, move.Moved)
	assert.Equal(t, 1, hookCalls)
	require.NotNil(t, hookResult)
	assert.Equal(t, "acc-1", hookResult.AccountID)
	assert.Equal(t, PhaseCompleted, c.Phase())
}

func TestController_TerminalWithoutHookIsNoOp(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleSponsor))
	advanceTo(t, c, "review")

	move, err := c.NextStep(ctx)
	require.NoError(t, err)
	assert.True(t, move.Terminal)
	assert.Equal(t, "review", currentID(t, c))
	assert.Equal(t, PhaseInStep, c.Phase())
}

func TestController_AdvanceGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("cooperative default", func(t *testing.T) {
		c := newTestController(t)
		require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
		assert.NoError(t, c.CanAdvance())
		move, err := c.NextStep(ctx)
		require.NoError(t, err)
		assert.True(t, move.Moved)
	})

	t.Run("schema guard", func(t *testing.T) {
		c := newTestController(t, WithAdvanceGuard(SchemaGuard{}))
		require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))

		err := c.CanAdvance()
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, ErrAdvanceBlocked))

		move, err := c.NextStep(ctx)
		assert.True(t, stderrors.Is(err, ErrAdvanceBlocked))
		assert.False(t, move.Moved)
		assert.Equal(t, "personal-info", currentID(t, c))

		require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{
			"full_name":     "Amina Hassan",
			"date_of_birth": "1994-03-02",
			"gender":        "female",
		}))
		move, err = c.NextStep(ctx)
		require.NoError(t, err)
		assert.Equal(t, "contact-details", move.To)
	})
}

// ==========================
// Gamification
// ==========================

func TestController_PointsAndAchievements(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)

	assert.Equal(t, 25, c.AwardPoints(ctx, 25, "x"))
	assert.Equal(t, 50, c.AwardPoints(ctx, 25, "x"))
	assert.Len(t, c.Ledger().Entries, 2)

	assert.True(t, c.UnlockAchievement(ctx, "first-step"))
	assert.False(t, c.UnlockAchievement(ctx, "first-step"))
	assert.Len(t, c.Ledger().Achievements, 1)
	assert.Equal(t, 50, c.Points())
}

// ==========================
// Persistence
// ==========================

func TestController_ResumesFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()

	first := newTestController(t, WithPersister(newAdapter(t, store)))
	require.NoError(t, first.SelectRole(ctx, stepgraph.RoleWorker))
	require.NoError(t, first.UpdateFormData(ctx, map[string]interface{}{
		"full_name": "Amina Hassan",
		"consents":  map[string]interface{}{"terms": true},
		"skills":    []interface{}{"cooking", "cooking", "childcare"},
	}))
	advanceTo(t, first, "phone-verification")
	first.AwardPoints(ctx, 10, "phone")

	second := newTestController(t, WithPersister(newAdapter(t, store)))
	assert.Equal(t, first.State(), second.State())
	assert.Equal(t, first.FormData(), second.FormData())
	assert.Equal(t, 10, second.Points())

	// Start reads the store once
	require.NoError(t, store.Delete(ctx, "onboarding:snapshot:sess-1"))
	require.NoError(t, second.Start(ctx))
	assert.Equal(t, "phone-verification", currentID(t, second))
}

func TestController_StrictResumeRepairsInapplicableStep(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t, snapshot.NewMemoryStore())

	first := newTestController(t, WithPersister(adapter), WithStrict(true))
	require.NoError(t, first.SelectRole(ctx, stepgraph.RoleWorker))
	advanceTo(t, first, "work-experience")
	require.NoError(t, first.UpdateFormData(ctx, map[string]interface{}{"experience_level": stepgraph.NoExperience}))
	require.Equal(t, "work-experience", adapter.Load(ctx, "sess-1").Flow.CurrentStepID)

	for i := 0; i < 2; i++ {
		c := newTestController(t, WithPersister(adapter), WithStrict(true))
		assert.True(t, c.Resumed())
		assert.Equal(t, "skills", currentID(t, c))
	}
	assert.Equal(t, "skills", adapter.Load(ctx, "sess-1").Flow.CurrentStepID)
}

func TestController_CompletedSnapshotNotResumed(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t, snapshot.NewMemoryStore())
	require.NoError(t, adapter.Save(ctx, "sess-1", &snapshot.Snapshot{
		Flow: snapshot.FlowState{
			Role:          "worker",
			History:       []string{"personal-info"},
			Visited:       []string{"personal-info"},
			CurrentStepID: "personal-info",
			IsComplete:    true,
		},
		FormData: map[string]interface{}{"role": "worker"},
	}))

	c := newTestController(t, WithPersister(adapter))
	assert.False(t, c.Resumed())
	assert.Equal(t, PhaseRoleSelection, c.Phase())
	assert.Empty(t, c.FormData())
	assert.Nil(t, adapter.Load(ctx, "sess-1"))
}

func TestController_OutdatedSnapshotDiscarded(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()

	old := snapshot.NewAdapter(store, logger.NewTestLogger(t),
		snapshot.WithKeyPrefix("onboarding:snapshot:"),
		snapshot.WithSchemaVersion(snapshot.DefaultSchemaVersion-1))
	require.NoError(t, old.Save(ctx, "sess-1", &snapshot.Snapshot{
		Flow:     snapshot.FlowState{Role: "worker", CurrentStepID: "skills", History: []string{"skills"}},
		FormData: map[string]interface{}{"role": "worker"},
	}))

	c := newTestController(t, WithPersister(newAdapter(t, store)))
	assert.Equal(t, PhaseRoleSelection, c.Phase())
	assert.Empty(t, c.FormData())

	_, err := store.Get(ctx, "onboarding:snapshot:sess-1")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestController_Restart(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t, snapshot.NewMemoryStore())
	c := newTestController(t, WithPersister(adapter))
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleSponsor))
	c.AwardPoints(ctx, 5, "start")

	require.NoError(t, c.Restart(ctx))
	assert.Equal(t, PhaseRoleSelection, c.Phase())
	assert.Empty(t, c.FormData())
	assert.Zero(t, c.Points())
	assert.Nil(t, adapter.Load(ctx, "sess-1"))
}

// ==========================
// Completion
// ==========================

func TestController_CompleteOnboarding_ClearsSnapshot(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t, snapshot.NewMemoryStore())

	var got finalize.Request
	c := newTestController(t,
		WithPersister(adapter),
		WithFinalizer(finalize.Func(func(ctx context.Context, req finalize.Request) (*finalize.Result, error) {
			got = req
			return &finalize.Result{AccountID: "acc-7", RedirectURL: "/welcome"}, nil
		})),
	)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"email": "amina@example.com"}))
	c.AwardPoints(ctx, 40, "profile")
	require.NotNil(t, adapter.Load(ctx, "sess-1"))

	res, err := c.CompleteOnboarding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-7", res.AccountID)

	assert.Equal(t, stepgraph.RoleWorker, got.Role)
	assert.Equal(t, 40, got.Points)
	assert.Equal(t, "amina@example.com", got.FormData["email"])

	assert.Nil(t, adapter.Load(ctx, "sess-1"))
	state := c.State()
	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.True(t, state.IsComplete)

	_, err = c.NextStep(ctx)
	assert.True(t, stderrors.Is(err, ErrFlowCompleted))
	_, err = c.CompleteOnboarding(ctx)
	assert.True(t, stderrors.Is(err, ErrFlowCompleted))
}

func TestController_NothingPersistedAfterCompletion(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapter(t, snapshot.NewMemoryStore())
	c := newTestController(t,
		WithPersister(adapter),
		WithFinalizer(finalize.Func(func(ctx context.Context, req finalize.Request) (*finalize.Result, error) {
			return &finalize.Result{AccountID: "acc-8"}, nil
		})),
	)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	_, err := c.CompleteOnboarding(ctx)
	require.NoError(t, err)

	assert.Equal(t, 10, c.AwardPoints(ctx, 10, "thanks"))
	assert.True(t, c.UnlockAchievement(ctx, "done"))
	c.TriggerCelebration("confetti")
	assert.Nil(t, adapter.Load(ctx, "sess-1"))

	fresh := newTestController(t, WithPersister(adapter))
	assert.False(t, fresh.Resumed())
	assert.Equal(t, PhaseRoleSelection, fresh.Phase())
}

func TestController_CompleteFromEarlierStepIsAllowed(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t,
		WithStrict(true),
		WithFinalizer(finalize.Func(func(ctx context.Context, req finalize.Request) (*finalize.Result, error) {
			return &finalize.Result{AccountID: "acc-9"}, nil
		})),
	)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	require.False(t, c.Completeness().Complete())

	res, err := c.CompleteOnboarding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-9", res.AccountID)
	assert.Equal(t, PhaseCompleted, c.Phase())
}

func TestController_CollaboratorRejectionRestoresStep(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t,
		WithFinalizer(finalize.Func(func(ctx context.Context, req finalize.Request) (*finalize.Result, error) {
			return nil, stderrors.New("duplicate email")
		})),
	)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))
	require.NoError(t, c.UpdateFormData(ctx, map[string]interface{}{"email": "amina@example.com"}))
	advanceTo(t, c, "review")

	before := c.FormData()
	res, err := c.CompleteOnboarding(ctx)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, "duplicate email", err.Error())
	assert.True(t, stderrors.Is(err, ErrCompletionFailed))

	var completionErr *CompletionError
	require.True(t, stderrors.As(err, &completionErr))
	assert.Equal(t, errors.ErrCodeCompletionFailed, completionErr.Code())

	assert.Equal(t, PhaseInStep, c.Phase())
	assert.Equal(t, "review", currentID(t, c))
	assert.Equal(t, before, c.FormData())
}

func TestController_CompletionErrorKeepsCollaboratorMessage(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t,
		WithFinalizer(finalize.Func(func(ctx context.Context, req finalize.Request) (*finalize.Result, error) {
			return nil, errors.NewAccountExistsError("An account with this email already exists", "")
		})),
	)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))

	_, err := c.CompleteOnboarding(ctx)
	assert.Equal(t, "An account with this email already exists", err.Error())

	var completionErr *CompletionError
	require.True(t, stderrors.As(err, &completionErr))
	assert.Equal(t, errors.ErrCodeAccountExists, completionErr.Code())
}

func TestController_NavigationBlockedWhileCompleting(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})

	c := newTestController(t,
		WithFinalizer(finalize.Func(func(ctx context.Context, req finalize.Request) (*finalize.Result, error) {
			close(entered)
			<-release
			return &finalize.Result{AccountID: "acc-1"}, nil
		})),
	)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleWorker))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.CompleteOnboarding(ctx)
		assert.NoError(t, err)
	}()
	<-entered

	assert.Equal(t, PhaseCompleting, c.Phase())
	_, err := c.NextStep(ctx)
	assert.True(t, stderrors.Is(err, ErrCompletionInProgress))
	_, err = c.PreviousStep(ctx)
	assert.True(t, stderrors.Is(err, ErrCompletionInProgress))
	assert.True(t, stderrors.Is(c.SelectRole(ctx, stepgraph.RoleAgency), ErrCompletionInProgress))
	_, err = c.CompleteOnboarding(ctx)
	assert.True(t, stderrors.Is(err, ErrCompletionInProgress))
	assert.True(t, stderrors.Is(c.Restart(ctx), ErrCompletionInProgress))

	close(release)
	wg.Wait()
	assert.Equal(t, PhaseCompleted, c.Phase())
}

func TestController_Completeness(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	require.NoError(t, c.SelectRole(ctx, stepgraph.RoleSponsor))

	report := c.Completeness()
	assert.False(t, report.Complete())
	assert.NotContains(t, report.Missing, "household-info")
	assert.Contains(t, report.Missing, "review")
	assert.NotContains(t, report.Missing, "accommodation", "inapplicable steps are not required")

	advanceTo(t, c, "review")
	assert.True(t, c.Completeness().Complete())
}
