package stepgraph

import (
	"testing"

	"onboarding-orchestrator/internal/onboarding/formdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

func storeWith(t *testing.T, fields map[string]interface{}) *formdata.Store {
	t.Helper()
	s, err := formdata.FromMap(fields)
	require.NoError(t, err)
	return s
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"worker", RoleWorker, false},
		{" Sponsor ", RoleSponsor, false},
		{"AGENCY", RoleAgency, false},
		{"employer", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_ValidatesTables(t *testing.T) {
	ok := []Step{{ID: "a"}}

	_, err := New(map[Role][]Step{RoleWorker: ok, RoleSponsor: ok})
	assert.ErrorContains(t, err, "agency has no steps")

	_, err = New(map[Role][]Step{RoleWorker: {{ID: "a"}, {ID: "a"}}, RoleSponsor: ok, RoleAgency: ok})
	assert.ErrorContains(t, err, "duplicate step id")

	_, err = New(map[Role][]Step{RoleWorker: {{}}, RoleSponsor: ok, RoleAgency: ok})
	assert.ErrorContains(t, err, "without id")
}

func TestDefault_SharedShapes(t *testing.T) {
	g := Default()
	for _, role := range Roles() {
		t.Run(string(role), func(t *testing.T) {
			steps := ids(g.Resolve(role))
			assert.Contains(t, steps, "consents")
			assert.Contains(t, steps, "premium-upsell")
			assert.Contains(t, steps, "biometric-doc")
			assert.Contains(t, steps, "phone-verification")
			assert.Equal(t, "review", steps[len(steps)-1])
		})
	}
}

func TestResolve_ReturnsCopy(t *testing.T) {
	g := Default()
	steps := g.Resolve(RoleWorker)
	steps[0].ID = "mutated"
	assert.Equal(t, "personal-info", g.Resolve(RoleWorker)[0].ID)
	assert.Nil(t, g.Resolve(Role("pilot")))
}

func TestApplicable_WorkerExperienceBranch(t *testing.T) {
	g := Default()
	cv := []string{"work-experience", "employment-reference", "verify-both-sides"}

	unanswered := ids(g.Applicable(RoleWorker, storeWith(t, map[string]interface{}{"role": "worker"})))
	for _, id := range cv {
		assert.Contains(t, unanswered, id)
	}

	none := ids(g.Applicable(RoleWorker, storeWith(t, map[string]interface{}{
		"role":             "worker",
		"experience_level": NoExperience,
	})))
	for _, id := range cv {
		assert.NotContains(t, none, id)
	}
}

func TestApplicable_BiometricNeedsRole(t *testing.T) {
	g := Default()
	assert.NotContains(t, ids(g.Applicable(RoleSponsor, formdata.New())), "biometric-doc")
	assert.Contains(t, ids(g.Applicable(RoleSponsor, storeWith(t, map[string]interface{}{"role": "sponsor"}))), "biometric-doc")
}

// Updates never reorder steps that stay applicable: the applicable list is
// always a subsequence of the full table.
func TestApplicable_PreservesTableOrder(t *testing.T) {
	g := Default()
	updates := []map[string]interface{}{
		{"role": "worker"},
		{"experience_level": "Experienced"},
		{"skills": []interface{}{"cooking"}},
		{"experience_level": NoExperience},
		{"experience_level": nil},
		{"employment_type": "live-in", "licensed": true},
	}

	for _, role := range Roles() {
		t.Run(string(role), func(t *testing.T) {
			data := formdata.New()
			full := ids(g.Resolve(role))
			for _, u := range updates {
				require.NoError(t, data.Update(u))
				applicable := ids(g.Applicable(role, data))
				assert.True(t, isSubsequence(applicable, full), "applicable %v not ordered like %v", applicable, full)
			}
		})
	}
}

func isSubsequence(sub, full []string) bool {
	i := 0
	for _, id := range full {
		if i < len(sub) && sub[i] == id {
			i++
		}
	}
	return i == len(sub)
}

func TestNavigationHelpers(t *testing.T) {
	g := Default()
	data := storeWith(t, map[string]interface{}{"role": "worker", "experience_level": NoExperience})

	first, ok := g.First(RoleWorker, data)
	require.True(t, ok)
	assert.Equal(t, "personal-info", first.ID)

	next, ok := g.After(RoleWorker, "experience-level", data)
	require.True(t, ok)
	assert.Equal(t, "skills", next.ID)

	prev, ok := g.Before(RoleWorker, "skills", data)
	require.True(t, ok)
	assert.Equal(t, "experience-level", prev.ID)

	// An inapplicable anchor still resolves by table position.
	next, ok = g.After(RoleWorker, "employment-reference", data)
	require.True(t, ok)
	assert.Equal(t, "skills", next.ID)

	_, ok = g.After(RoleWorker, "review", data)
	assert.False(t, ok)
	_, ok = g.Before(RoleWorker, "personal-info", data)
	assert.False(t, ok)
	assert.Equal(t, -1, g.Position(RoleWorker, "nope"))
}

func TestSponsorAccommodationBranch(t *testing.T) {
	g := Default()
	liveOut := storeWith(t, map[string]interface{}{"role": "sponsor", "employment_type": "live-out"})
	liveIn := storeWith(t, map[string]interface{}{"role": "sponsor", "employment_type": "live-in"})

	assert.NotContains(t, ids(g.Applicable(RoleSponsor, liveOut)), "accommodation")
	assert.Contains(t, ids(g.Applicable(RoleSponsor, liveIn)), "accommodation")
}

type recordingEffects struct {
	unlocked     map[string]bool
	celebrations []string
}

func (r *recordingEffects) AwardPoints(int, string) int { return 0 }

func (r *recordingEffects) UnlockAchievement(id string) bool {
	if r.unlocked[id] {
		return false
	}
	r.unlocked[id] = true
	return true
}

func (r *recordingEffects) TriggerCelebration(kind string) {
	r.celebrations = append(r.celebrations, kind)
}

func TestReviewHook_CelebratesOnce(t *testing.T) {
	review, ok := Default().Lookup(RoleAgency, "review")
	require.True(t, ok)
	require.NotNil(t, review.OnEnter)

	fx := &recordingEffects{unlocked: map[string]bool{}}
	review.OnEnter(fx)
	review.OnEnter(fx)

	assert.True(t, fx.unlocked["agency-profile-ready"])
	assert.Equal(t, []string{CelebrationConfetti}, fx.celebrations)
}

func TestCatalog(t *testing.T) {
	catalog := Default().Catalog("3")
	require.Len(t, catalog.Roles, 3)

	entry, ok := catalog.Find("worker", "work-experience")
	require.True(t, ok)
	assert.True(t, entry.Conditional)
	assert.Equal(t, []string{"work_history"}, entry.RequiredFields)
	assert.Equal(t, "object", entry.InputSchema["type"])

	entry, ok = catalog.Find("sponsor", "premium-upsell")
	require.True(t, ok)
	assert.True(t, entry.Skippable)
	assert.True(t, entry.HasEnterHook)
}
