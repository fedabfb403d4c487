package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/onboarding/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var savedAt = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		SchemaVersion: DefaultSchemaVersion,
		SessionID:     "sess-1",
		Flow: FlowState{
			Role:          "worker",
			History:       []string{"personal-info", "contact-details"},
			Visited:       []string{"personal-info", "contact-details"},
			Skipped:       []string{},
			CurrentStepID: "contact-details",
		},
		FormData: map[string]interface{}{
			"role":      "worker",
			"full_name": "Amina Hassan",
			"age":       float64(29),
			"skills":    []interface{}{"cooking", "childcare"},
			"consents":  map[string]interface{}{"terms": true, "privacy": false},
			"photo":     nil,
		},
		Ledger: ledger.Ledger{
			Entries:      []ledger.Entry{{Points: 25, Reason: "personal-info", Timestamp: savedAt}},
			Achievements: []string{"first-step"},
		},
		SavedAt: savedAt,
	}
}

// ==========================
// Round trip
// ==========================

func TestAdapter_RoundTrip(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), logger.NewTestLogger(t), WithKeyPrefix("onboarding:snapshot:"))
	ctx := context.Background()
	original := sampleSnapshot()

	require.NoError(t, a.Save(ctx, "sess-1", original))

	loaded := a.Load(ctx, "sess-1")
	require.NotNil(t, loaded)
	assert.Equal(t, original, loaded)
}

func TestAdapter_LoadMissing(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), logger.NewTestLogger(t))
	assert.Nil(t, a.Load(context.Background(), "nobody"))
}

func TestAdapter_ClearThenLoad(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), logger.NewTestLogger(t))
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "sess-1", sampleSnapshot()))
	require.NoError(t, a.Clear(ctx, "sess-1"))
	assert.Nil(t, a.Load(ctx, "sess-1"))
}

func TestAdapter_SaveStampsVersionAndTime(t *testing.T) {
	store := NewMemoryStore()
	a := NewAdapter(store, logger.NewTestLogger(t), WithSchemaVersion(7), WithClock(func() time.Time { return savedAt }))
	ctx := context.Background()

	snap := sampleSnapshot()
	snap.SchemaVersion = 1
	snap.SavedAt = time.Time{}
	snap.FormData = nil
	require.NoError(t, a.Save(ctx, "sess-1", snap))

	loaded := a.Load(ctx, "sess-1")
	require.NotNil(t, loaded)
	assert.Equal(t, 7, loaded.SchemaVersion)
	assert.Equal(t, savedAt, loaded.SavedAt)
	assert.Equal(t, map[string]interface{}{}, loaded.FormData)
	assert.Equal(t, 1, snap.SchemaVersion, "caller's snapshot is not modified")
}

// ==========================
// Discarding untrusted snapshots
// ==========================

func TestAdapter_DiscardsUntrusted(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "older schema version",
			payload: `{"schema_version":2,"session_id":"s","flow":{"role":"worker","history":[],"current_step_id":"a"},"form_data":{},"ledger":{},"saved_at":"2026-01-01T00:00:00Z"}`,
		},
		{
			name:    "not json",
			payload: `{"schema_version":3,`,
		},
		{
			name:    "schema violation",
			payload: `{"schema_version":3,"session_id":"s","flow":{"role":"pilot","history":[],"current_step_id":"a"},"form_data":{},"ledger":{},"saved_at":"2026-01-01T00:00:00Z"}`,
		},
		{
			name:    "missing form data",
			payload: `{"schema_version":3,"session_id":"s","flow":{"role":"worker","history":[],"current_step_id":"a"},"ledger":{},"saved_at":"2026-01-01T00:00:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "sess-1", []byte(tt.payload)))

			a := NewAdapter(store, logger.NewTestLogger(t))
			assert.Nil(t, a.Load(ctx, "sess-1"))

			_, err := store.Get(ctx, "sess-1")
			assert.ErrorIs(t, err, ErrNotFound, "discarded snapshot is removed")
		})
	}
}

// ==========================
// Failure handling
// ==========================

type failingStore struct {
	*MemoryStore
	setErr error
	getErr error
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func TestAdapter_SaveFailureIsReported(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), setErr: errors.New("disk full")}
	a := NewAdapter(store, logger.NewTestLogger(t))

	err := a.Save(context.Background(), "sess-1", sampleSnapshot())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePersistenceWriteFailed, apperrors.CodeOf(err))
}

func TestAdapter_LoadFailureStartsFresh(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), getErr: errors.New("connection reset")}
	a := NewAdapter(store, logger.NewTestLogger(t))
	assert.Nil(t, a.Load(context.Background(), "sess-1"))
}

// ==========================
// Inline assets
// ==========================

func TestAdapter_StripsLargeInlineAssets(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), logger.NewTestLogger(t), WithMaxInlineAssetBytes(64))
	ctx := context.Background()

	big := "data:image/jpeg;base64," + strings.Repeat("A", 200)
	small := "data:image/png;base64,AAAA"

	snap := sampleSnapshot()
	snap.FormData["selfie"] = map[string]interface{}{"data": big, "name": "selfie.jpg", "type": "image/jpeg", "size": float64(150)}
	snap.FormData["signature"] = small
	snap.FormData["gallery"] = []interface{}{big, "https://cdn.example.com/1.jpg"}

	require.NoError(t, a.Save(ctx, "sess-1", snap))
	loaded := a.Load(ctx, "sess-1")
	require.NotNil(t, loaded)

	selfie := loaded.FormData["selfie"].(map[string]interface{})
	assert.Nil(t, selfie["data"])
	assert.Equal(t, "selfie.jpg", selfie["name"])
	assert.Equal(t, float64(150), selfie["size"])
	assert.Equal(t, small, loaded.FormData["signature"])
	assert.Equal(t, []interface{}{nil, "https://cdn.example.com/1.jpg"}, loaded.FormData["gallery"])

	assert.Equal(t, big, snap.FormData["selfie"].(map[string]interface{})["data"], "caller's data untouched")
}
