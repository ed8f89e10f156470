package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/conversation"
	"github.com/bezata/aicity-backend-sub002/internal/event"
	"github.com/bezata/aicity-backend-sub002/internal/scheduler"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry      *agent.Registry
	directory     *city.Directory
	culture       *city.Culture
	metrics       *city.Metrics
	conversations *conversation.Manager
	events        *event.Engine
	catalog       []event.Template
	clock         sim.Clock
	sched         *scheduler.Scheduler
	logger        *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	registry *agent.Registry,
	directory *city.Directory,
	culture *city.Culture,
	metrics *city.Metrics,
	conversations *conversation.Manager,
	events *event.Engine,
	catalog []event.Template,
	clock sim.Clock,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		registry:      registry,
		directory:     directory,
		culture:       culture,
		metrics:       metrics,
		conversations: conversations,
		events:        events,
		catalog:       catalog,
		clock:         clock,
		sched:         sched,
		logger:        logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Get("/agents", h.listAgents)
		r.Post("/agents", h.createAgent)
		r.Get("/agents/{id}", h.getAgent)
		r.Put("/agents/{id}/routine", h.setAgentRoutine)

		r.Get("/districts", h.listDistricts)
		r.Post("/districts", h.createDistrict)
		r.Get("/districts/{id}", h.getDistrict)

		r.Get("/conversations", h.listConversations)
		r.Get("/conversations/{id}", h.getConversation)
		r.Post("/conversations/{id}/advance", h.advanceConversation)
		r.Post("/conversations/{id}/complete", h.completeConversation)

		r.Get("/events", h.listEvents)
		r.Get("/events/templates", h.listEventTemplates)
		r.Post("/events", h.triggerEvent)
		r.Post("/events/{id}/resolve", h.resolveEvent)

		r.Get("/metrics", h.getMetrics)
		r.Get("/culture", h.getCulture)
		r.Put("/culture/mood", h.setMood)
		r.Put("/culture/traditions", h.setTraditions)

		r.Get("/world/status", h.worldStatus)
		r.Post("/tasks/{name}/run", h.runTask)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List())
}

func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	var p agent.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if p.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	h.registry.Register(&p)
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.registry.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) setAgentRoutine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var routine []agent.RoutineEntry
	if err := json.NewDecoder(r.Body).Decode(&routine); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.registry.SetRoutine(id, routine); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "routine updated"})
}

func (h *Handler) listDistricts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.directory.All())
}

func (h *Handler) createDistrict(w http.ResponseWriter, r *http.Request) {
	var d city.District
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if d.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	h.directory.Register(&d)
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) getDistrict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.directory.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.conversations.List())
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := h.conversations.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *Handler) advanceConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.conversations.Advance(r.Context(), id); err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	conv, err := h.conversations.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *Handler) completeConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.conversations.Complete(r.Context(), id); err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.events.Active())
}

func (h *Handler) listEventTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}

type triggerEventRequest struct {
	TemplateID string `json:"template_id"`
}

func (h *Handler) triggerEvent(w http.ResponseWriter, r *http.Request) {
	var req triggerEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	tmpl, ok := h.findTemplate(req.TemplateID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	inst, err := h.events.Trigger(r.Context(), tmpl)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (h *Handler) findTemplate(id string) (event.Template, bool) {
	for _, t := range h.catalog {
		if t.ID == id {
			return t, true
		}
	}
	return event.Template{}, false
}

func (h *Handler) resolveEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.events.Resolve(r.Context(), id); err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (h *Handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *Handler) getCulture(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.culture.Snapshot())
}

type moodRequest struct {
	Mood float64 `json:"mood"`
}

func (h *Handler) setMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Mood < 0 || req.Mood > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mood must be in [0,1]"})
		return
	}
	h.culture.SetMood(req.Mood)
	writeJSON(w, http.StatusOK, h.culture.Snapshot())
}

type traditionsRequest struct {
	Traditions []string `json:"traditions"`
}

func (h *Handler) setTraditions(w http.ResponseWriter, r *http.Request) {
	var req traditionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.culture.SetTraditions(req.Traditions)
	writeJSON(w, http.StatusOK, h.culture.Snapshot())
}

func (h *Handler) worldStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"world_time":           h.clock.Now(),
		"agent_count":          h.registry.Count(),
		"district_count":       len(h.directory.All()),
		"active_conversations": h.conversations.ActiveCount(),
		"active_events":        h.events.ActiveTitles(),
		"tasks":                h.sched.TaskNames(),
	})
}

func (h *Handler) runTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.sched.RunNow(name, h.clock.Now()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "task": name})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrAgentNotFound),
		errors.Is(err, conversation.ErrConversationNotFound),
		errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, city.ErrDistrictNotFound):
		return http.StatusNotFound
	case errors.Is(err, city.ErrNoDistricts),
		errors.Is(err, conversation.ErrAgentBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
