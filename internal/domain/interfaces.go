package domain

import (
	"context"
	"time"
)

// SubscriptionSource is the remote serverless endpoint that owns the truth
// about a user's subscription.
type SubscriptionSource interface {
	Fetch(ctx context.Context, req SubscriptionRequest) (*SubscriptionRecord, error)
}

// SubscriptionRequest is the payload sent to the subscription source.
type SubscriptionRequest struct {
	UserID                string
	OriginalTransactionID string
	ForceRefresh          bool
	Token                 string
}

// SubscriptionRecord is the parsed remote payload before local merging.
type SubscriptionRecord struct {
	Entitlement        Entitlement
	SubscriptionStatus SubscriptionStatus
	HasUsedTrial       bool
	ExpirationDate     *time.Time
	AutoRenewEnabled   bool
	SubscriptionType   string
	BannerOverride     BannerType
}

// SubscriptionMirror reads the locally synced subscription row used as a
// fallback when the remote source is unreachable.
type SubscriptionMirror interface {
	Get(ctx context.Context, userID, token string) (*SubscriptionRecord, error)
}

// UsageRepository reads and resets the per-user usage counters document.
type UsageRepository interface {
	Get(ctx context.Context, userID, token string) (*UsageCounters, error)
	Reset(ctx context.Context, userID, token string) error
}

// DismissalStore persists per-user banner dismiss flags and small cached
// scalars. Plan-status banners are keyed by (user, type, instance); usage
// limit banners by (user, type) only.
type DismissalStore interface {
	IsDismissed(ctx context.Context, userID string, banner BannerType, instanceID string) (bool, error)
	Dismiss(ctx context.Context, userID string, banner BannerType, instanceID string) error
	ResetAll(ctx context.Context, userID string) error
	ResetUsageDismissals(ctx context.Context, userID string) error

	GetValue(ctx context.Context, userID, key string) (string, error)
	SetValue(ctx context.Context, userID, key, value string) error
}

// PlanService resolves the current plan state for a user. It never fails the
// caller; on error it degrades to the best locally known state.
type PlanService interface {
	Resolve(ctx context.Context, userID, token string, forceRefresh bool) *PlanState
	Previous(ctx context.Context, userID string) *PlanState
}

// UsageLimitService evaluates consumed counters against plan-derived limits.
type UsageLimitService interface {
	Evaluate(ctx context.Context, userID, token string, plan *PlanState) LimitFlags
	ResetAllUsage(ctx context.Context, userID, token string) error
}

// BannerService decides which banners the client should render.
type BannerService interface {
	Decide(ctx context.Context, userID string, previous, current *PlanState, flags LimitFlags) []Banner
	Dismiss(ctx context.Context, userID string, banner BannerType, instanceID string) error
	ResetDismissals(ctx context.Context, userID string) error
}

// AuthService validates bearer tokens for the HTTP surface.
type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetDataDir() string
	GetSubscriptionFunction() string
	GetPlanCacheTTL() time.Duration
	GetUsageCacheTTL() time.Duration
	GetRemoteTimeout() time.Duration
}
