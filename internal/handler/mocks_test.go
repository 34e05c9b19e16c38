package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"plan-banner-service/internal/domain"
)

type mockPlanService struct {
	state       *domain.PlanState
	previous    *domain.PlanState
	lastRefresh bool
	calls       int
}

func (m *mockPlanService) Resolve(ctx context.Context, userID, token string, forceRefresh bool) *domain.PlanState {
	m.calls++
	m.lastRefresh = forceRefresh
	return m.state
}

func (m *mockPlanService) Previous(ctx context.Context, userID string) *domain.PlanState {
	return m.previous
}

type mockUsageLimitService struct {
	flags      domain.LimitFlags
	resetErr   error
	resetCalls int
}

func (m *mockUsageLimitService) Evaluate(ctx context.Context, userID, token string, plan *domain.PlanState) domain.LimitFlags {
	if m.flags == nil {
		return domain.NoLimitsReached()
	}
	return m.flags
}

func (m *mockUsageLimitService) ResetAllUsage(ctx context.Context, userID, token string) error {
	m.resetCalls++
	return m.resetErr
}

type dismissedBanner struct {
	banner     domain.BannerType
	instanceID string
}

type mockBannerService struct {
	banners    []domain.Banner
	dismissErr error
	dismissed  []dismissedBanner
	resetErr   error
	resetCalls int
}

func (m *mockBannerService) Decide(ctx context.Context, userID string, previous, current *domain.PlanState, flags domain.LimitFlags) []domain.Banner {
	return m.banners
}

func (m *mockBannerService) Dismiss(ctx context.Context, userID string, banner domain.BannerType, instanceID string) error {
	if m.dismissErr != nil {
		return m.dismissErr
	}
	m.dismissed = append(m.dismissed, dismissedBanner{banner: banner, instanceID: instanceID})
	return nil
}

func (m *mockBannerService) ResetDismissals(ctx context.Context, userID string) error {
	m.resetCalls++
	return m.resetErr
}

// authedRequest builds a request that already carries an authenticated user
// and token, as the middleware would have left them.
func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), userContextKey, &domain.SupabaseUser{ID: "user-1", Email: "test@example.com"})
	ctx = context.WithValue(ctx, tokenContextKey, "token")
	return req.WithContext(ctx)
}
