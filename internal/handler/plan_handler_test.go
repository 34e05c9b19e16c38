package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"plan-banner-service/internal/domain"
)

func TestPlanHandler_GetPlan(t *testing.T) {
	planService := &mockPlanService{state: &domain.PlanState{
		Entitlement:        domain.EntitlementPremium,
		SubscriptionStatus: domain.StatusActive,
		PlanInstanceID:     "inst-1",
	}}
	h := NewPlanHandler(planService, NewMockHandlerLogger())

	req := authedRequest(http.MethodGet, "/api/v1/plan", nil)
	rr := httptest.NewRecorder()

	h.GetPlan(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"entitlement":"premium"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
	if planService.lastRefresh {
		t.Fatalf("expected no forced refresh by default")
	}
}

func TestPlanHandler_GetPlanForceRefresh(t *testing.T) {
	planService := &mockPlanService{state: domain.DefaultPlanState()}
	h := NewPlanHandler(planService, NewMockHandlerLogger())

	req := authedRequest(http.MethodGet, "/api/v1/plan?refresh=true", nil)
	rr := httptest.NewRecorder()

	h.GetPlan(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !planService.lastRefresh {
		t.Fatalf("expected refresh=true to force a refresh")
	}
}

func TestPlanHandler_GetPlanWithoutUser(t *testing.T) {
	planService := &mockPlanService{state: domain.DefaultPlanState()}
	h := NewPlanHandler(planService, NewMockHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plan", nil)
	rr := httptest.NewRecorder()

	h.GetPlan(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if planService.calls != 0 {
		t.Fatalf("expected resolver not to be called")
	}
}
