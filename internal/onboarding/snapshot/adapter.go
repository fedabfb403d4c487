package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/common/metrics"
	"onboarding-orchestrator/internal/common/validation"
)

// Adapter encodes snapshots to a Store, validating them on the way back.
type Adapter struct {
	store          Store
	logger         logger.Logger
	schemaVersion  int
	keyPrefix      string
	maxInlineBytes int
	now            func() time.Time
}

type Option func(*Adapter)

func WithSchemaVersion(v int) Option {
	return func(a *Adapter) { a.schemaVersion = v }
}

func WithKeyPrefix(prefix string) Option {
	return func(a *Adapter) { a.keyPrefix = prefix }
}

// WithMaxInlineAssetBytes drops data: URIs longer than n bytes on save.
// Zero keeps every asset inline.
func WithMaxInlineAssetBytes(n int) Option {
	return func(a *Adapter) { a.maxInlineBytes = n }
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

func NewAdapter(store Store, log logger.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		store:         store,
		logger:        log,
		schemaVersion: DefaultSchemaVersion,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) SchemaVersion() int { return a.schemaVersion }

func (a *Adapter) key(sessionID string) string {
	return a.keyPrefix + sessionID
}

// Save stamps the schema version and writes snap. A failure is logged with
// PERSISTENCE_WRITE_FAILED and returned; the in-memory state stays as is.
func (a *Adapter) Save(ctx context.Context, sessionID string, snap *Snapshot) error {
	key := a.key(sessionID)

	doc := *snap
	doc.SchemaVersion = a.schemaVersion
	doc.SessionID = sessionID
	if doc.SavedAt.IsZero() {
		doc.SavedAt = a.now()
	}
	if doc.FormData == nil {
		doc.FormData = map[string]interface{}{}
	} else if a.maxInlineBytes > 0 {
		doc.FormData = stripInlineAssets(doc.FormData, a.maxInlineBytes).(map[string]interface{})
	}

	payload, err := json.Marshal(&doc)
	if err == nil {
		err = a.store.Set(ctx, key, payload)
	}
	if err != nil {
		stdErr := apperrors.NewPersistenceWriteFailedError(key, err)
		metrics.PersistenceFailures.WithLabelValues(a.store.Name(), "save").Inc()
		a.logger.Warn("snapshot save failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"sessionId": sessionID,
			"store":     a.store.Name(),
			"error":     err,
		})
		return stdErr
	}
	return nil
}

// Load returns the stored snapshot, or nil when there is none or it cannot
// be trusted. Untrusted snapshots are removed so the next start is clean.
func (a *Adapter) Load(ctx context.Context, sessionID string) *Snapshot {
	key := a.key(sessionID)

	payload, err := a.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(a.store.Name(), "load").Inc()
		a.logger.Warn("snapshot load failed, starting fresh", map[string]interface{}{
			"sessionId": sessionID,
			"store":     a.store.Name(),
			"error":     err,
		})
		return nil
	}

	snap, reason := a.decode(payload)
	if snap == nil {
		stdErr := apperrors.NewPersistenceLoadCorruptError(key, reason)
		metrics.PersistenceFailures.WithLabelValues(a.store.Name(), "corrupt").Inc()
		a.logger.Warn("discarding persisted snapshot", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"sessionId": sessionID,
			"reason":    reason,
		})
		if err := a.store.Delete(ctx, key); err != nil {
			a.logger.Warn("failed to remove discarded snapshot", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err,
			})
		}
		return nil
	}
	return snap
}

func (a *Adapter) decode(payload []byte) (*Snapshot, string) {
	if !json.Valid(payload) {
		return nil, "payload is not valid JSON"
	}

	problems, err := validation.ValidateDocument(documentSchema, payload)
	if err != nil {
		return nil, err.Error()
	}
	if len(problems) > 0 {
		return nil, "schema violations: " + strings.Join(problems, "; ")
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, err.Error()
	}
	if snap.SchemaVersion != a.schemaVersion {
		return nil, fmt.Sprintf("schema_version %d, want %d", snap.SchemaVersion, a.schemaVersion)
	}
	return &snap, ""
}

// Clear removes the snapshot.
func (a *Adapter) Clear(ctx context.Context, sessionID string) error {
	if err := a.store.Delete(ctx, a.key(sessionID)); err != nil {
		metrics.PersistenceFailures.WithLabelValues(a.store.Name(), "clear").Inc()
		return err
	}
	return nil
}

// stripInlineAssets returns a copy of v with data: URIs longer than max
// replaced by null. Asset reference fields next to them are kept.
func stripInlineAssets(v interface{}, max int) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = stripInlineAssets(val, max)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = stripInlineAssets(val, max)
		}
		return out
	case string:
		if len(t) > max && strings.HasPrefix(t, "data:") {
			return nil
		}
		return t
	default:
		return v
	}
}
