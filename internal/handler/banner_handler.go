package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"plan-banner-service/internal/domain"
	apperrors "plan-banner-service/pkg/errors"

	"github.com/gorilla/mux"
)

// BannerHandler handles banner decision HTTP requests
type BannerHandler struct {
	logger        domain.Logger
	planService   domain.PlanService
	usageService  domain.UsageLimitService
	bannerService domain.BannerService
}

// NewBannerHandler creates a new banner handler
func NewBannerHandler(
	planService domain.PlanService,
	usageService domain.UsageLimitService,
	bannerService domain.BannerService,
	logger domain.Logger,
) *BannerHandler {
	return &BannerHandler{
		logger:        logger,
		planService:   planService,
		usageService:  usageService,
		bannerService: bannerService,
	}
}

type dismissRequest struct {
	InstanceID string `json:"instanceId"`
}

// GetBanners runs the full pipeline: resolve the plan, evaluate usage limits
// and decide which banners the client should render.
func (h *BannerHandler) GetBanners(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	token, _ := GetTokenFromContext(r)

	current := h.planService.Resolve(r.Context(), user.ID, token, false)
	previous := h.planService.Previous(r.Context(), user.ID)
	flags := h.usageService.Evaluate(r.Context(), user.ID, token, current)

	banners := h.bannerService.Decide(r.Context(), user.ID, previous, current, flags)
	if banners == nil {
		banners = []domain.Banner{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"banners": banners})
}

// DismissBanner records a dismissal for the given banner type.
func (h *BannerHandler) DismissBanner(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	vars := mux.Vars(r)
	banner, ok := domain.ParseBannerType(vars["type"])
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown banner type")
		return
	}

	var req dismissRequest
	if r.Body != nil {
		// The body is optional; usage-limit banners carry no instance id.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.bannerService.Dismiss(r.Context(), user.ID, banner, req.InstanceID); err != nil {
		if errors.Is(err, domain.ErrInvalidBannerType) {
			h.writeError(w, http.StatusBadRequest, "Unknown banner type")
			return
		}
		h.logger.Error("Failed to dismiss banner", err, "user_id", user.ID, "banner", string(banner))
		h.writeError(w, apperrors.GetStatusCode(err), "Failed to dismiss banner")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResetBanners clears every dismissal the user has recorded.
func (h *BannerHandler) ResetBanners(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	if err := h.bannerService.ResetDismissals(r.Context(), user.ID); err != nil {
		h.logger.Error("Failed to reset dismissals", err, "user_id", user.ID)
		h.writeError(w, apperrors.GetStatusCode(err), "Failed to reset dismissals")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError writes an error response
func (h *BannerHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (h *BannerHandler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
