package service

import (
	"context"
	"encoding/json"
	"time"

	"plan-banner-service/internal/domain"
	"plan-banner-service/pkg/cache"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	planSnapshotKey     = "plan_snapshot"
	planSnapshotPrevKey = "plan_snapshot_prev"
)

// initialFetchRetries applies only to the first resolution for a user since
// process start; every later call site fails soft immediately.
const initialFetchRetries = 3

// planSnapshot is the locally persisted view of the last resolved state. It
// carries the permanent trial/premium history bits and the instance id.
type planSnapshot struct {
	Entitlement        domain.Entitlement        `json:"entitlement"`
	SubscriptionStatus domain.SubscriptionStatus `json:"subscriptionStatus"`
	HasUsedTrial       bool                      `json:"hasUsedTrial"`
	HasUsedPremium     bool                      `json:"hasUsedPremium"`
	PlanInstanceID     string                    `json:"planInstanceId"`
}

type planService struct {
	source domain.SubscriptionSource
	mirror domain.SubscriptionMirror
	store  domain.DismissalStore
	logger domain.Logger

	planCache *cache.TTL[string, *domain.PlanState]
	group     singleflight.Group

	// retryDelays is the linear backoff schedule for the initial fetch.
	retryDelays []time.Duration
}

// NewPlanService creates the entitlement resolver.
func NewPlanService(
	source domain.SubscriptionSource,
	mirror domain.SubscriptionMirror,
	store domain.DismissalStore,
	config domain.Config,
	logger domain.Logger,
) domain.PlanService {
	return &planService{
		source:      source,
		mirror:      mirror,
		store:       store,
		logger:      logger,
		planCache:   cache.NewTTL[string, *domain.PlanState](config.GetPlanCacheTTL()),
		retryDelays: []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
	}
}

// Resolve returns the current plan state for the user. It never fails the
// caller: remote errors degrade through the mirror row and the last locally
// known snapshot down to the free/cancelled default.
func (s *planService) Resolve(ctx context.Context, userID, token string, forceRefresh bool) *domain.PlanState {
	if !forceRefresh {
		if state, ok := s.planCache.Get(userID); ok {
			return state
		}
	}

	// Concurrent callers for the same user share one in-flight resolution
	// instead of re-issuing the remote call.
	result, _, _ := s.group.Do(userID, func() (interface{}, error) {
		return s.resolve(ctx, userID, token, forceRefresh), nil
	})
	return result.(*domain.PlanState)
}

func (s *planService) resolve(ctx context.Context, userID, token string, forceRefresh bool) *domain.PlanState {
	prev := s.loadSnapshot(ctx, userID, planSnapshotKey)

	record, err := s.fetchRemote(ctx, userID, token, forceRefresh, prev == nil)
	if err == nil && record == nil {
		err = domain.ErrMalformedResponse
	}
	if err != nil {
		s.logger.Warn("Subscription source unavailable, falling back to mirror",
			"user_id", userID, "error", err)
		record, err = s.mirror.Get(ctx, userID, token)
		if err == nil && record == nil {
			err = domain.ErrSubscriptionMissing
		}
	}

	var state *domain.PlanState
	if err != nil {
		s.logger.Warn("Subscription mirror unavailable, using last known snapshot",
			"user_id", userID, "error", err)
		state = s.degradedState(prev)
	} else {
		state = &domain.PlanState{
			Entitlement:        record.Entitlement,
			SubscriptionStatus: record.SubscriptionStatus,
			HasUsedTrial:       record.HasUsedTrial,
			ExpirationDate:     record.ExpirationDate,
			AutoRenewEnabled:   record.AutoRenewEnabled,
			SubscriptionType:   record.SubscriptionType,
			BannerOverride:     record.BannerOverride,
			ResolvedAt:         time.Now().UTC(),
		}
	}

	s.mergeHistory(state, prev)
	s.assignInstance(state, prev)
	s.persistSnapshot(ctx, userID, state, prev)

	s.planCache.Set(userID, state)
	return state
}

// fetchRemote calls the subscription source, retrying with linear backoff only
// when this is the first resolution for the user.
func (s *planService) fetchRemote(ctx context.Context, userID, token string, forceRefresh, firstFetch bool) (*domain.SubscriptionRecord, error) {
	req := domain.SubscriptionRequest{
		UserID:       userID,
		ForceRefresh: forceRefresh,
		Token:        token,
	}

	record, err := s.source.Fetch(ctx, req)
	if err == nil || !firstFetch {
		return record, err
	}

	for attempt := 0; attempt < initialFetchRetries && attempt < len(s.retryDelays); attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelays[attempt]):
		}

		record, err = s.source.Fetch(ctx, req)
		if err == nil {
			return record, nil
		}
		s.logger.Warn("Retrying subscription fetch", "user_id", userID, "attempt", attempt+1, "error", err)
	}
	return nil, err
}

// degradedState rebuilds a plan state from the last persisted snapshot, or
// returns the free/cancelled default when nothing local exists.
func (s *planService) degradedState(prev *planSnapshot) *domain.PlanState {
	if prev == nil {
		return domain.DefaultPlanState()
	}
	return &domain.PlanState{
		Entitlement:        prev.Entitlement,
		SubscriptionStatus: prev.SubscriptionStatus,
		HasUsedTrial:       prev.HasUsedTrial,
		HasUsedPremium:     prev.HasUsedPremium,
		ResolvedAt:         time.Now().UTC(),
	}
}

// mergeHistory ORs the permanent history bits with the local record so they
// only ever transition false to true.
func (s *planService) mergeHistory(state *domain.PlanState, prev *planSnapshot) {
	if state.Entitlement == domain.EntitlementTrial {
		state.HasUsedTrial = true
	}
	if prev == nil {
		return
	}
	state.HasUsedTrial = state.HasUsedTrial || prev.HasUsedTrial
	state.HasUsedPremium = state.HasUsedPremium || prev.HasUsedPremium

	// A paid subscription observed leaving premium marks the premium history bit.
	if prev.Entitlement == domain.EntitlementPremium && state.Entitlement != domain.EntitlementPremium {
		state.HasUsedPremium = true
	}
	if state.Entitlement == domain.EntitlementPremium && state.SubscriptionStatus == domain.StatusExpired {
		state.HasUsedPremium = true
	}
}

// assignInstance keeps the previous instance id while the plan is unchanged
// and mints a fresh one on every transition.
func (s *planService) assignInstance(state *domain.PlanState, prev *planSnapshot) {
	if prev != nil && prev.Entitlement == state.Entitlement && prev.SubscriptionStatus == state.SubscriptionStatus {
		state.PlanInstanceID = prev.PlanInstanceID
		return
	}
	state.PlanInstanceID = uuid.New().String()
}

func (s *planService) persistSnapshot(ctx context.Context, userID string, state *domain.PlanState, prev *planSnapshot) {
	if prev != nil && prev.PlanInstanceID != state.PlanInstanceID {
		if raw, err := json.Marshal(prev); err == nil {
			if err := s.store.SetValue(ctx, userID, planSnapshotPrevKey, string(raw)); err != nil {
				s.logger.Warn("Failed to persist previous plan snapshot", "user_id", userID, "error", err)
			}
		}
	}

	snap := planSnapshot{
		Entitlement:        state.Entitlement,
		SubscriptionStatus: state.SubscriptionStatus,
		HasUsedTrial:       state.HasUsedTrial,
		HasUsedPremium:     state.HasUsedPremium,
		PlanInstanceID:     state.PlanInstanceID,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.store.SetValue(ctx, userID, planSnapshotKey, string(raw)); err != nil {
		s.logger.Warn("Failed to persist plan snapshot", "user_id", userID, "error", err)
	}
}

func (s *planService) loadSnapshot(ctx context.Context, userID, key string) *planSnapshot {
	raw, err := s.store.GetValue(ctx, userID, key)
	if err != nil {
		s.logger.Warn("Failed to load plan snapshot", "user_id", userID, "error", err)
		return nil
	}
	if raw == "" {
		return nil
	}

	var snap planSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("Discarding corrupt plan snapshot", "user_id", userID, "error", err)
		return nil
	}
	return &snap
}

// Previous returns the plan state the user was in before the last transition,
// or nil when no transition has been observed.
func (s *planService) Previous(ctx context.Context, userID string) *domain.PlanState {
	snap := s.loadSnapshot(ctx, userID, planSnapshotPrevKey)
	if snap == nil {
		return nil
	}
	return &domain.PlanState{
		Entitlement:        snap.Entitlement,
		SubscriptionStatus: snap.SubscriptionStatus,
		HasUsedTrial:       snap.HasUsedTrial,
		HasUsedPremium:     snap.HasUsedPremium,
		PlanInstanceID:     snap.PlanInstanceID,
	}
}
