package service

import (
	"context"
	"time"

	"plan-banner-service/internal/domain"
	"plan-banner-service/pkg/cache"
)

type usageLimitService struct {
	repo   domain.UsageRepository
	store  domain.DismissalStore
	logger domain.Logger

	flagCache *cache.TTL[string, domain.LimitFlags]
}

// NewUsageLimitService creates the usage limit evaluator.
func NewUsageLimitService(
	repo domain.UsageRepository,
	store domain.DismissalStore,
	config domain.Config,
	logger domain.Logger,
) domain.UsageLimitService {
	return &usageLimitService{
		repo:      repo,
		store:     store,
		logger:    logger,
		flagCache: cache.NewTTL[string, domain.LimitFlags](config.GetUsageCacheTTL()),
	}
}

// Evaluate compares consumed counters against the ceilings for the resolved
// plan. It fails open: any fetch error yields all-false flags so the user is
// never blocked by an evaluator failure.
func (s *usageLimitService) Evaluate(ctx context.Context, userID, token string, plan *domain.PlanState) domain.LimitFlags {
	if flags, ok := s.flagCache.Get(userID); ok {
		return flags
	}

	counters, err := s.repo.Get(ctx, userID, token)
	if err != nil {
		s.logger.Warn("Failed to fetch usage counters, assuming no limits reached",
			"user_id", userID, "error", err)
		return domain.NoLimitsReached()
	}

	// Free-tier counters reset on month rollover. A stale period means the
	// row simply has not been touched yet this month.
	if plan.Entitlement != domain.EntitlementPremium && s.periodRolledOver(counters) {
		s.logger.Info("Usage period rolled over, resetting counters", "user_id", userID)
		if err := s.repo.Reset(ctx, userID, token); err != nil {
			s.logger.Warn("Failed to reset rolled-over counters", "user_id", userID, "error", err)
		}
		if err := s.store.ResetUsageDismissals(ctx, userID); err != nil {
			s.logger.Warn("Failed to clear usage dismiss flags on rollover", "user_id", userID, "error", err)
		}
		flags := domain.NoLimitsReached()
		s.flagCache.Set(userID, flags)
		return flags
	}

	limits := domain.LimitsForEntitlement(plan.Entitlement)
	flags := make(domain.LimitFlags, len(domain.Resources))
	for _, r := range domain.Resources {
		flags[r] = counters.Get(r) >= limits.Get(r)
	}

	s.flagCache.Set(userID, flags)
	return flags
}

// ResetAllUsage zeroes the user's counters and clears the usage-limit dismiss
// flags so those banners become eligible again.
func (s *usageLimitService) ResetAllUsage(ctx context.Context, userID, token string) error {
	if err := s.repo.Reset(ctx, userID, token); err != nil {
		return err
	}
	if err := s.store.ResetUsageDismissals(ctx, userID); err != nil {
		s.logger.Warn("Failed to clear usage dismiss flags", "user_id", userID, "error", err)
	}
	s.flagCache.Delete(userID)
	return nil
}

func (s *usageLimitService) periodRolledOver(counters *domain.UsageCounters) bool {
	if counters.PeriodStart.IsZero() {
		return false
	}
	now := time.Now().UTC()
	return counters.PeriodStart.Year() < now.Year() ||
		(counters.PeriodStart.Year() == now.Year() && counters.PeriodStart.Month() < now.Month())
}
