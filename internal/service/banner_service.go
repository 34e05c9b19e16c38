package service

import (
	"context"
	"time"

	"plan-banner-service/internal/domain"
)

type bannerService struct {
	store  domain.DismissalStore
	logger domain.Logger
}

// NewBannerService creates the banner decision engine.
func NewBannerService(store domain.DismissalStore, logger domain.Logger) domain.BannerService {
	return &bannerService{
		store:  store,
		logger: logger,
	}
}

// Decide selects at most one plan-status banner and at most one usage-limit
// banner for the current snapshot, honoring per-instance dismissal.
func (s *bannerService) Decide(ctx context.Context, userID string, previous, current *domain.PlanState, flags domain.LimitFlags) []domain.Banner {
	if current == nil {
		return nil
	}

	// Remote override escape hatch: the source named a banner directly.
	if current.BannerOverride != "" {
		banner := domain.Banner{Type: current.BannerOverride}
		if current.BannerOverride.IsPlanStatus() {
			banner.InstanceID = current.PlanInstanceID
		}
		return []domain.Banner{banner}
	}

	// On a transition, stale flags for the previous instance are force-set to
	// dismissed so the new selection always starts from a clean flag.
	if previous != nil && !current.SameInstance(previous) {
		s.dismissStale(ctx, userID, previous)
	}

	banners := make([]domain.Banner, 0, 2)

	if planBanner := planStatusBanner(current, time.Now().UTC()); planBanner != "" {
		dismissed := s.isDismissed(ctx, userID, planBanner, current.PlanInstanceID)
		if !dismissed {
			banners = append(banners, domain.Banner{Type: planBanner, InstanceID: current.PlanInstanceID})
		}
	}

	if flags.AnyReached() {
		usageBanner := domain.BannerUsageLimitFree
		if current.Entitlement == domain.EntitlementPremium {
			usageBanner = domain.BannerUsageLimitPro
		}
		if !s.isDismissed(ctx, userID, usageBanner, "") {
			banners = append(banners, domain.Banner{Type: usageBanner})
		}
	}

	return banners
}

// planStatusBanner applies the priority rules, highest first.
func planStatusBanner(p *domain.PlanState, now time.Time) domain.BannerType {
	if p.InGracePeriod(now) {
		return domain.BannerPremiumGrace
	}

	switch p.SubscriptionStatus {
	case domain.StatusActive:
		switch {
		case p.Entitlement == domain.EntitlementTrial:
			return domain.BannerTrialStarted
		case p.Entitlement == domain.EntitlementPremium && p.HasUsedTrial:
			return domain.BannerTrialCompleted
		case p.Entitlement == domain.EntitlementPremium:
			return domain.BannerPremiumStarted
		}
	case domain.StatusCancelling:
		if p.Entitlement == domain.EntitlementTrial {
			return domain.BannerTrialCancelled
		}
		return domain.BannerPremiumCancelled
	case domain.StatusExpired:
		if p.Entitlement == domain.EntitlementTrial || p.HasUsedTrial {
			return domain.BannerTrialCompleted
		}
		return domain.BannerPremiumExpired
	case domain.StatusRefunded:
		return domain.BannerPremiumCancelled
	case domain.StatusCancelled:
		if p.Entitlement == domain.EntitlementFree && p.HasUsedTrial {
			return domain.BannerFree
		}
	}

	return ""
}

// dismissStale force-dismisses every plan-status flag for the previous
// instance so no banner is left dismissible but orphaned.
func (s *bannerService) dismissStale(ctx context.Context, userID string, previous *domain.PlanState) {
	for _, bt := range domain.PlanStatusBannerTypes {
		if err := s.store.Dismiss(ctx, userID, bt, previous.PlanInstanceID); err != nil {
			s.logger.Warn("Failed to force-dismiss stale banner flag",
				"user_id", userID, "banner", bt, "error", err)
		}
	}
}

// isDismissed fails open: a read error counts as not dismissed and the banner
// shows again.
func (s *bannerService) isDismissed(ctx context.Context, userID string, banner domain.BannerType, instanceID string) bool {
	dismissed, err := s.store.IsDismissed(ctx, userID, banner, instanceID)
	if err != nil {
		s.logger.Warn("Failed to read dismiss flag, showing banner",
			"user_id", userID, "banner", banner, "error", err)
		return false
	}
	return dismissed
}

// Dismiss records a user closing a banner. Writes persist immediately.
func (s *bannerService) Dismiss(ctx context.Context, userID string, banner domain.BannerType, instanceID string) error {
	if !banner.Valid() {
		return domain.ErrInvalidBannerType
	}
	return s.store.Dismiss(ctx, userID, banner, instanceID)
}

// ResetDismissals clears every flag for the user (account deletion and debug
// reset paths).
func (s *bannerService) ResetDismissals(ctx context.Context, userID string) error {
	return s.store.ResetAll(ctx, userID)
}
