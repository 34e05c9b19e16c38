package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"plan-banner-service/internal/domain"
)

func freePlan() *domain.PlanState {
	return &domain.PlanState{
		Entitlement:        domain.EntitlementFree,
		SubscriptionStatus: domain.StatusCancelled,
		PlanInstanceID:     "inst-1",
	}
}

func premiumPlan() *domain.PlanState {
	return &domain.PlanState{
		Entitlement:        domain.EntitlementPremium,
		SubscriptionStatus: domain.StatusActive,
		PlanInstanceID:     "inst-1",
	}
}

func thisMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func TestUsageLimitService_FlagsPerResource(t *testing.T) {
	repo := &mockUsageRepo{counters: &domain.UsageCounters{
		OCRPages:    10, // at the free ceiling
		TTSRequests: 3,
		PeriodStart: thisMonth(),
	}}
	svc := NewUsageLimitService(repo, newMockDismissalStore(), newMockConfig(), NewMockLogger())

	flags := svc.Evaluate(context.Background(), "user-1", "token", freePlan())

	if !flags[domain.ResourceOCRPages] {
		t.Fatalf("expected ocrPages limit to be reached")
	}
	if flags[domain.ResourceTTSRequests] {
		t.Fatalf("expected ttsRequests limit to be open")
	}
	if flags[domain.ResourceTranslatedChars] || flags[domain.ResourceStorageBytes] {
		t.Fatalf("expected untouched resources to be open")
	}
}

func TestUsageLimitService_PremiumCeilings(t *testing.T) {
	// The same counters that exhaust free quota are far below premium quota.
	repo := &mockUsageRepo{counters: &domain.UsageCounters{
		OCRPages:    10,
		PeriodStart: thisMonth(),
	}}
	svc := NewUsageLimitService(repo, newMockDismissalStore(), newMockConfig(), NewMockLogger())

	flags := svc.Evaluate(context.Background(), "user-1", "token", premiumPlan())

	if flags.AnyReached() {
		t.Fatalf("expected no premium limit reached, got %v", flags)
	}
}

func TestUsageLimitService_FailsOpen(t *testing.T) {
	repo := &mockUsageRepo{err: errors.New("table missing")}
	svc := NewUsageLimitService(repo, newMockDismissalStore(), newMockConfig(), NewMockLogger())

	flags := svc.Evaluate(context.Background(), "user-1", "token", freePlan())

	if flags.AnyReached() {
		t.Fatalf("expected all-false flags on fetch error, got %v", flags)
	}
}

func TestUsageLimitService_CachesFlags(t *testing.T) {
	repo := &mockUsageRepo{counters: &domain.UsageCounters{PeriodStart: thisMonth()}}
	svc := NewUsageLimitService(repo, newMockDismissalStore(), newMockConfig(), NewMockLogger())

	svc.Evaluate(context.Background(), "user-1", "token", freePlan())

	// A second call within the TTL must not refetch.
	repo.err = errors.New("should not be called")
	flags := svc.Evaluate(context.Background(), "user-1", "token", freePlan())
	if flags.AnyReached() {
		t.Fatalf("expected cached flags, got %v", flags)
	}
}

func TestUsageLimitService_MonthRolloverResetsFreeTier(t *testing.T) {
	store := newMockDismissalStore()
	lastMonth := thisMonth().AddDate(0, -1, 0)
	repo := &mockUsageRepo{counters: &domain.UsageCounters{
		OCRPages:    10,
		PeriodStart: lastMonth,
	}}
	svc := NewUsageLimitService(repo, store, newMockConfig(), NewMockLogger())

	// A sticky dismissal from last period must be cleared by the rollover.
	_ = store.Dismiss(context.Background(), "user-1", domain.BannerUsageLimitFree, "")

	flags := svc.Evaluate(context.Background(), "user-1", "token", freePlan())

	if flags.AnyReached() {
		t.Fatalf("expected rolled-over counters to report no limits, got %v", flags)
	}
	if repo.resetCalls != 1 {
		t.Fatalf("expected counters reset, got %d calls", repo.resetCalls)
	}
	dismissed, _ := store.IsDismissed(context.Background(), "user-1", domain.BannerUsageLimitFree, "")
	if dismissed {
		t.Fatalf("expected usage dismiss flag to be cleared on rollover")
	}
}

func TestUsageLimitService_NoRolloverForPremium(t *testing.T) {
	lastMonth := thisMonth().AddDate(0, -1, 0)
	repo := &mockUsageRepo{counters: &domain.UsageCounters{
		OCRPages:    2_000, // above even the premium ceiling
		PeriodStart: lastMonth,
	}}
	svc := NewUsageLimitService(repo, newMockDismissalStore(), newMockConfig(), NewMockLogger())

	flags := svc.Evaluate(context.Background(), "user-1", "token", premiumPlan())

	if repo.resetCalls != 0 {
		t.Fatalf("expected no reset for premium accounts")
	}
	if !flags[domain.ResourceOCRPages] {
		t.Fatalf("expected premium counters to keep accumulating")
	}
}

func TestUsageLimitService_ResetAllUsage(t *testing.T) {
	store := newMockDismissalStore()
	repo := &mockUsageRepo{counters: &domain.UsageCounters{OCRPages: 10, PeriodStart: thisMonth()}}
	svc := NewUsageLimitService(repo, store, newMockConfig(), NewMockLogger())

	// Populate the cache with exhausted flags and a sticky dismissal.
	flags := svc.Evaluate(context.Background(), "user-1", "token", freePlan())
	if !flags.AnyReached() {
		t.Fatalf("expected a limit to be reached before reset")
	}
	_ = store.Dismiss(context.Background(), "user-1", domain.BannerUsageLimitFree, "")

	if err := svc.ResetAllUsage(context.Background(), "user-1", "token"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.resetCalls != 1 {
		t.Fatalf("expected counters reset, got %d calls", repo.resetCalls)
	}

	dismissed, _ := store.IsDismissed(context.Background(), "user-1", domain.BannerUsageLimitFree, "")
	if dismissed {
		t.Fatalf("expected usage dismiss flag to be cleared by reset")
	}

	// The cache entry is dropped, so the next evaluation sees fresh counters.
	repo.counters = &domain.UsageCounters{PeriodStart: thisMonth()}
	flags = svc.Evaluate(context.Background(), "user-1", "token", freePlan())
	if flags.AnyReached() {
		t.Fatalf("expected no limits after reset, got %v", flags)
	}
}

func TestUsageLimitService_ResetPropagatesRepoError(t *testing.T) {
	repo := &mockUsageRepo{counters: &domain.UsageCounters{}, resetErr: errors.New("write denied")}
	svc := NewUsageLimitService(repo, newMockDismissalStore(), newMockConfig(), NewMockLogger())

	if err := svc.ResetAllUsage(context.Background(), "user-1", "token"); err == nil {
		t.Fatalf("expected reset error to propagate")
	}
}
