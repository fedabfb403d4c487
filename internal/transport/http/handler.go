// Package httptransport exposes onboarding sessions to the step UI.
package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/onboarding/finalize"
	"onboarding-orchestrator/internal/onboarding/flow"
	"onboarding-orchestrator/internal/onboarding/session"
	"onboarding-orchestrator/internal/onboarding/stepgraph"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sessions is the session registry the handler serves.
type Sessions interface {
	Create(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Abandon(ctx context.Context, id string) error
}

type Handler struct {
	sessions Sessions
	logger   logger.Logger
	timeout  time.Duration
}

func NewHandler(sessions Sessions, log logger.Logger, timeout time.Duration) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{sessions: sessions, logger: log, timeout: timeout}
}

// NewRouter wires the onboarding API, a health probe and /metrics.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/onboarding/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleAbandon)
			r.Post("/role", h.handleSelectRole)
			r.Patch("/form-data", h.handleUpdateFormData)
			r.Post("/next", h.handleNext)
			r.Post("/previous", h.handlePrevious)
			r.Post("/skip", h.handleSkip)
			r.Post("/points", h.handleAwardPoints)
			r.Post("/achievements", h.handleUnlockAchievement)
			r.Post("/celebrations", h.handleCelebrate)
			r.Post("/restart", h.handleRestart)
			r.Get("/completeness", h.handleCompleteness)
			r.Post("/complete", h.handleComplete)
		})
	})
	return r
}

type stepView struct {
	ID           string `json:"id"`
	ComponentKey string `json:"componentKey"`
	Skippable    bool   `json:"skippable"`
	Index        int    `json:"index"`
	Total        int    `json:"total"`
}

type sessionView struct {
	SessionID    string                 `json:"sessionId"`
	State        flow.State             `json:"state"`
	Step         *stepView              `json:"step,omitempty"`
	FormData     map[string]interface{} `json:"formData"`
	Points       int                    `json:"points"`
	Achievements []string               `json:"achievements"`
	Celebrations []string               `json:"celebrations"`
	Move         *flow.Move             `json:"move,omitempty"`
	Unlocked     *bool                  `json:"unlocked,omitempty"`
	Result       *finalize.Result       `json:"result,omitempty"`
}

func (h *Handler) view(s *session.Session) sessionView {
	c := s.Controller
	state := c.State()
	led := c.Ledger()

	v := sessionView{
		SessionID:    s.ID,
		State:        state,
		FormData:     c.FormData(),
		Points:       led.Total(),
		Achievements: append([]string{}, led.Achievements...),
		Celebrations: s.Celebrations.Drain(),
	}
	if v.Celebrations == nil {
		v.Celebrations = []string{}
	}

	if state.Phase == flow.PhaseInStep {
		if step, err := c.CurrentStep(); err == nil {
			applicable := c.Applicable()
			sv := &stepView{ID: step.ID, ComponentKey: step.ComponentKey, Skippable: step.Skippable, Total: len(applicable)}
			for i, a := range applicable {
				if a.ID == step.ID {
					sv.Index = i
				}
			}
			v.Step = sv
		}
	}
	return v
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.NewInvalidRequestError("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.Error("failed to create onboarding session", map[string]interface{}{"error": err.Error()})
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(s))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleSelectRole(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectRoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := stepgraph.ParseRole(req.Role)
	if err != nil {
		writeError(w, errors.NewInvalidRoleError(req.Role))
		return
	}
	if err := s.Controller.SelectRole(r.Context(), role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handleUpdateFormData(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var partial map[string]interface{}
	if !decode(w, r, &partial) {
		return
	}
	if err := s.Controller.UpdateFormData(r.Context(), partial); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, nav func(*flow.Controller, context.Context) (flow.Move, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	move, err := nav(s.Controller, r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	v := h.view(s)
	v.Move = &move
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*flow.Controller).NextStep)
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*flow.Controller).PreviousStep)
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*flow.Controller).SkipStep)
}

type awardPointsRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

func (h *Handler) handleAwardPoints(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req awardPointsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Reason == "" {
		writeError(w, errors.NewInvalidRequestError("reason is required"))
		return
	}
	s.Controller.AwardPoints(r.Context(), req.Amount, req.Reason)
	writeJSON(w, http.StatusOK, h.view(s))
}

type unlockRequest struct {
	ID string `json:"id"`
}

func (h *Handler) handleUnlockAchievement(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req unlockRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, errors.NewInvalidRequestError("id is required"))
		return
	}
	unlocked := s.Controller.UnlockAchievement(r.Context(), req.ID)
	v := h.view(s)
	v.Unlocked = &unlocked
	writeJSON(w, http.StatusOK, v)
}

type celebrateRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) handleCelebrate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req celebrateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Kind == "" {
		writeError(w, errors.NewInvalidRequestError("kind is required"))
		return
	}
	s.Controller.TriggerCelebration(req.Kind)
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Controller.Restart(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s))
}

func (h *Handler) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	report := s.Controller.Completeness()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"complete": report.Complete(),
		"missing":  report.Missing,
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.Controller.CompleteOnboarding(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	v := h.view(s)
	v.Result = res
	writeJSON(w, http.StatusOK, v)
}
