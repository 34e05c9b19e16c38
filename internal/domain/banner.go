package domain

// BannerType identifies one of the dismissible banners the client can render.
type BannerType string

const (
	BannerTrialStarted     BannerType = "trialStarted"
	BannerTrialCancelled   BannerType = "trialCancelled"
	BannerTrialCompleted   BannerType = "trialCompleted"
	BannerPremiumStarted   BannerType = "premiumStarted"
	BannerPremiumGrace     BannerType = "premiumGrace"
	BannerPremiumCancelled BannerType = "premiumCancelled"
	BannerPremiumExpired   BannerType = "premiumExpired"
	BannerFree             BannerType = "free"
	BannerUsageLimitFree   BannerType = "usageLimitFree"
	BannerUsageLimitPro    BannerType = "usageLimitPremium"
)

// PlanStatusBannerTypes lists every plan-status banner, used when force
// clearing stale dismiss flags on a plan transition.
var PlanStatusBannerTypes = []BannerType{
	BannerTrialStarted,
	BannerTrialCancelled,
	BannerTrialCompleted,
	BannerPremiumStarted,
	BannerPremiumGrace,
	BannerPremiumCancelled,
	BannerPremiumExpired,
	BannerFree,
}

// Valid reports whether the value is a known banner type.
func (b BannerType) Valid() bool {
	switch b {
	case BannerTrialStarted, BannerTrialCancelled, BannerTrialCompleted,
		BannerPremiumStarted, BannerPremiumGrace, BannerPremiumCancelled,
		BannerPremiumExpired, BannerFree, BannerUsageLimitFree, BannerUsageLimitPro:
		return true
	}
	return false
}

// IsUsageLimit reports whether the banner is one of the usage-limit pair.
// Usage-limit banners are dismissed by type alone, without instance scoping.
func (b BannerType) IsUsageLimit() bool {
	return b == BannerUsageLimitFree || b == BannerUsageLimitPro
}

// IsPlanStatus reports whether the banner is scoped to a plan instance.
func (b BannerType) IsPlanStatus() bool {
	return b.Valid() && !b.IsUsageLimit()
}

// ParseBannerType maps a raw string to a BannerType. The boolean is false for
// unknown values.
func ParseBannerType(s string) (BannerType, bool) {
	b := BannerType(s)
	return b, b.Valid()
}

// Banner is one entry in the list returned to the client for rendering.
type Banner struct {
	Type BannerType `json:"type"`

	// InstanceID is set for plan-status banners only; it is the dismissal key
	// the client sends back when the user closes the banner.
	InstanceID string `json:"instanceId,omitempty"`
}
