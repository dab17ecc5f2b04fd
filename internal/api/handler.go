package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/plantpulse/plantpulse/internal/alerts"
	"github.com/plantpulse/plantpulse/internal/assign"
	"github.com/plantpulse/plantpulse/internal/engine"
	"github.com/plantpulse/plantpulse/internal/incident"
	"github.com/plantpulse/plantpulse/internal/model"
	"github.com/plantpulse/plantpulse/internal/store"
)

// defaultAssessmentLookback is the telemetry window behind
// GET /api/v1/equipment/{id}/assessment when none is requested.
const defaultAssessmentLookback = 24 * time.Hour

// Handler is the HTTP handler for all /api/v1/* endpoints. Reads come
// straight from the store; anything that changes state goes through the
// engine so audit, workload and notification side effects stay attached.
type Handler struct {
	engine *engine.Engine
	store  store.Store
	alerts *alerts.Engine
	mux    *http.ServeMux
}

// New creates a Handler and registers all routes. al may be nil when no
// alert rules are configured.
func New(eng *engine.Engine, st store.Store, al *alerts.Engine) http.Handler {
	h := &Handler{engine: eng, store: st, alerts: al, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/equipment", h.equipment)
	h.mux.HandleFunc("/api/v1/equipment/", h.equipmentByID) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/technicians", h.technicians)
	h.mux.HandleFunc("/api/v1/technicians/workload", h.workload)
	h.mux.HandleFunc("/api/v1/technicians/", h.technicianByID)
	h.mux.HandleFunc("/api/v1/incidents", h.incidents)
	h.mux.HandleFunc("/api/v1/incidents/summary", h.incidentSummary)
	h.mux.HandleFunc("/api/v1/incidents/", h.incidentByID)
	h.mux.HandleFunc("/api/v1/alerts", h.activeAlerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — fleet-level counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := FleetHealthResponse{
		ByCriticality: make(map[model.Tier]int),
		ModelVersion:  h.engine.Predictor().Model().Version(),
	}
	for _, eq := range h.store.ListEquipment() {
		if eq.Retired {
			resp.RetiredCount++
			continue
		}
		resp.EquipmentCount++
		resp.ByCriticality[eq.Criticality]++
	}
	for _, status := range []model.Status{model.StatusPending, model.StatusInProgress} {
		for _, in := range h.store.Incidents(store.IncidentFilter{Status: status}) {
			resp.OpenIncidents++
			if in.Escalated {
				resp.EscalatedOpen++
			}
		}
	}
	resp.TechnicianCount = len(h.store.Technicians(store.TechnicianFilter{}))
	if h.alerts != nil {
		resp.ActiveAlerts = len(h.alerts.Active())
	}
	jsonResp(w, http.StatusOK, resp)
}

// equipment serves GET (list) and POST (register) on /api/v1/equipment.
func (h *Handler) equipment(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, h.store.ListEquipment())
	case http.MethodPost:
		var req RegisterEquipmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.ID == "" || req.Name == "" {
			jsonErr(w, http.StatusBadRequest, "id and name are required")
			return
		}
		tier, err := model.ParseTier(req.Criticality)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		eq := model.Equipment{
			ID:                  req.ID,
			Name:                req.Name,
			Type:                req.Type,
			Location:            req.Location,
			Criticality:         tier,
			AgeMonths:           req.AgeMonths,
			OperatingHours:      req.OperatingHours,
			MaintenanceInterval: time.Duration(req.MaintenanceIntervalDays) * 24 * time.Hour,
		}
		h.store.PutEquipment(eq)
		jsonResp(w, http.StatusCreated, eq)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// equipmentByID serves GET /api/v1/equipment/{id} and its subresources
// /assessment and /readings.
func (h *Handler) equipmentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/equipment/")
	if rest == "" {
		h.equipment(w, r)
		return
	}
	id, sub, _ := strings.Cut(rest, "/")

	switch sub {
	case "":
		eq, err := h.store.Equipment(id)
		if err != nil {
			jsonErr(w, http.StatusNotFound, "equipment not found")
			return
		}
		jsonResp(w, http.StatusOK, eq)

	case "assessment":
		lookback := defaultAssessmentLookback
		if raw := r.URL.Query().Get("lookback"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				jsonErr(w, http.StatusBadRequest, "invalid lookback duration")
				return
			}
			lookback = d
		}
		assessment, err := h.engine.AssessEquipment(r.Context(), id, lookback)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				jsonErr(w, http.StatusNotFound, "equipment not found")
				return
			}
			jsonErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		jsonResp(w, http.StatusOK, assessment)

	case "readings":
		to := time.Now()
		from := to.Add(-defaultAssessmentLookback)
		if raw := r.URL.Query().Get("since"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				jsonErr(w, http.StatusBadRequest, "invalid since timestamp")
				return
			}
			from = t
		}
		if _, err := h.store.Equipment(id); err != nil {
			jsonErr(w, http.StatusNotFound, "equipment not found")
			return
		}
		jsonResp(w, http.StatusOK, h.store.Readings(id, from, to))

	default:
		jsonErr(w, http.StatusNotFound, "unknown resource")
	}
}

// technicians serves GET (list, with availability/specialty filters) and
// POST (register) on /api/v1/technicians.
func (h *Handler) technicians(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f := store.TechnicianFilter{
			Availability: model.Availability(r.URL.Query().Get("availability")),
			Specialty:    model.Specialty(r.URL.Query().Get("specialty")),
		}
		jsonResp(w, http.StatusOK, h.store.Technicians(f))
	case http.MethodPost:
		var req RegisterTechnicianRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.ID == "" || req.Name == "" {
			jsonErr(w, http.StatusBadRequest, "id and name are required")
			return
		}
		t := model.Technician{
			ID:              req.ID,
			Name:            req.Name,
			Specialty:       model.ParseSpecialty(req.Specialty),
			ExperienceYears: req.ExperienceYears,
			Skill:           model.SkillLevel(req.SkillLevel),
			Availability:    model.Availability(req.Availability),
			MaxWorkload:     req.MaxWorkload,
			Location:        req.Location,
			Certifications:  req.Certifications,
		}
		if t.Availability == "" {
			t.Availability = model.Available
		}
		h.store.PutTechnician(t)
		jsonResp(w, http.StatusCreated, t)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// workload returns GET /api/v1/technicians/workload — the pool's load
// picture, banded by utilisation.
func (h *Handler) workload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, assign.SummarizeWorkload(h.store.Technicians(store.TechnicianFilter{})))
}

// technicianByID serves GET /api/v1/technicians/{id} and /performance.
func (h *Handler) technicianByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/technicians/")
	if rest == "" {
		h.technicians(w, r)
		return
	}
	id, sub, _ := strings.Cut(rest, "/")

	t, err := h.store.Technician(id)
	if err != nil {
		jsonErr(w, http.StatusNotFound, "technician not found")
		return
	}
	switch sub {
	case "":
		jsonResp(w, http.StatusOK, t)
	case "performance":
		jsonResp(w, http.StatusOK, h.store.PerformanceRecords(id))
	default:
		jsonErr(w, http.StatusNotFound, "unknown resource")
	}
}

// incidents serves GET (list with filters) and POST (open) on
// /api/v1/incidents.
func (h *Handler) incidents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var escalated *bool
		if raw := r.URL.Query().Get("escalated"); raw != "" {
			v := raw == "true"
			escalated = &v
		}
		f := store.IncidentFilter{
			Status:      model.Status(r.URL.Query().Get("status")),
			EquipmentID: r.URL.Query().Get("equipment_id"),
			AssignedTo:  r.URL.Query().Get("assigned_to"),
			Escalated:   escalated,
		}
		jsonResp(w, http.StatusOK, h.store.Incidents(f))

	case http.MethodPost:
		var req OpenIncidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		params := engine.OpenParams{
			Title:             req.Title,
			Description:       req.Description,
			EquipmentID:       req.EquipmentID,
			CreatedBy:         actor(r),
			EstimatedDuration: time.Duration(req.EstimatedMinutes) * time.Minute,
			Tags:              req.Tags,
			AutoAssign:        req.AutoAssign,
		}
		if req.Priority != "" {
			tier, err := model.ParseTier(req.Priority)
			if err != nil {
				jsonErr(w, http.StatusBadRequest, err.Error())
				return
			}
			params.Priority = tier
		}
		res, err := h.engine.OpenIncident(r.Context(), params)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				jsonErr(w, http.StatusNotFound, "equipment not found")
				return
			}
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		jsonResp(w, http.StatusCreated, OpenIncidentResponse{
			Incident:        res.Incident,
			Assignment:      res.Assignment,
			Recommendations: res.Recommendations,
		})

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// incidentSummary returns GET /api/v1/incidents/summary.
func (h *Handler) incidentSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, incident.Summarize(h.store.Incidents(store.IncidentFilter{})))
}

// incidentByID serves GET /api/v1/incidents/{id} with subresources
// /audit and /assignments, and the POST lifecycle actions /assign,
// /start, /complete, /cancel, /escalate and /reprioritize.
func (h *Handler) incidentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/incidents/")
	if rest == "" {
		h.incidents(w, r)
		return
	}
	id, sub, _ := strings.Cut(rest, "/")

	if r.Method == http.MethodGet {
		switch sub {
		case "":
			in, err := h.store.Incident(id)
			if err != nil {
				jsonErr(w, http.StatusNotFound, "incident not found")
				return
			}
			jsonResp(w, http.StatusOK, in)
		case "audit":
			jsonResp(w, http.StatusOK, h.store.AuditTrail(id))
		case "assignments":
			jsonResp(w, http.StatusOK, h.store.AssignmentHistory(id))
		default:
			jsonErr(w, http.StatusNotFound, "unknown resource")
		}
		return
	}
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	who := actor(r)
	switch sub {
	case "assign":
		a, err := h.engine.Reassign(r.Context(), id, who)
		if err != nil {
			h.lifecycleErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, a)

	case "start":
		in, err := h.engine.StartWork(r.Context(), id, who)
		if err != nil {
			h.lifecycleErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, in)

	case "complete":
		var req CompleteIncidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		actual := time.Duration(req.ActualMinutes) * time.Minute
		in, err := h.engine.CompleteIncident(r.Context(), id, actual, req.ResolutionNotes, who)
		if err != nil {
			h.lifecycleErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, in)

	case "cancel":
		var req CancelIncidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in, err := h.engine.CancelIncident(r.Context(), id, req.Reason, who)
		if err != nil {
			h.lifecycleErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, in)

	case "escalate":
		var req EscalateIncidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in, err := h.engine.Escalate(r.Context(), id, req.Reason, who)
		if err != nil {
			h.lifecycleErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, in)

	case "reprioritize":
		var req ReprioritizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		tier, err := model.ParseTier(req.Priority)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		in, err := h.engine.Reprioritize(r.Context(), id, tier, who)
		if err != nil {
			h.lifecycleErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, in)

	default:
		jsonErr(w, http.StatusNotFound, "unknown action")
	}
}

// activeAlerts returns GET /api/v1/alerts — alerts currently firing or
// resolved within the recent window.
func (h *Handler) activeAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// snapshot returns GET /api/v1/snapshot — the same envelope the
// WebSocket hub broadcasts.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store, h.alerts))
}

// lifecycleErr maps engine errors to HTTP statuses.
func (h *Handler) lifecycleErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, incident.ErrInvalidTransition):
		jsonErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, assign.ErrNoEligibleCandidate):
		jsonErr(w, http.StatusConflict, err.Error())
	default:
		jsonErr(w, http.StatusInternalServerError, err.Error())
	}
}

// actor identifies the caller for audit purposes.
func actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	return "api"
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
