package handler

import (
	"encoding/json"
	"net/http"

	"plan-banner-service/internal/domain"
)

// PlanHandler handles plan-related HTTP requests
type PlanHandler struct {
	logger      domain.Logger
	planService domain.PlanService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService domain.PlanService, logger domain.Logger) *PlanHandler {
	return &PlanHandler{
		logger:      logger,
		planService: planService,
	}
}

// GetPlan returns the resolved plan state for the authenticated user. The
// resolver degrades internally, so this endpoint always answers 200.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, _ := GetTokenFromContext(r)

	forceRefresh := r.URL.Query().Get("refresh") == "true"
	state := h.planService.Resolve(r.Context(), user.ID, token, forceRefresh)

	h.writeJSON(w, http.StatusOK, state)
}

// writeError writes an error response
func (h *PlanHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (h *PlanHandler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
