package handler

import (
	"encoding/json"
	"net/http"

	"plan-banner-service/internal/domain"
	apperrors "plan-banner-service/pkg/errors"
)

// UsageHandler handles usage-limit HTTP requests
type UsageHandler struct {
	logger       domain.Logger
	planService  domain.PlanService
	usageService domain.UsageLimitService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(planService domain.PlanService, usageService domain.UsageLimitService, logger domain.Logger) *UsageHandler {
	return &UsageHandler{
		logger:       logger,
		planService:  planService,
		usageService: usageService,
	}
}

// GetLimits evaluates the user's counters against their plan ceilings.
func (h *UsageHandler) GetLimits(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, _ := GetTokenFromContext(r)

	plan := h.planService.Resolve(r.Context(), user.ID, token, false)
	flags := h.usageService.Evaluate(r.Context(), user.ID, token, plan)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entitlement":   plan.Entitlement,
		"limits":        domain.LimitsForEntitlement(plan.Entitlement),
		"limitsReached": flags,
		"anyReached":    flags.AnyReached(),
	})
}

// ResetUsage zeroes the user's counters and clears usage-limit dismiss flags.
func (h *UsageHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, _ := GetTokenFromContext(r)

	if err := h.usageService.ResetAllUsage(r.Context(), user.ID, token); err != nil {
		h.logger.Error("Failed to reset usage", err, "user_id", user.ID)
		h.writeError(w, apperrors.GetStatusCode(err), "Failed to reset usage")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError writes an error response
func (h *UsageHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (h *UsageHandler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
