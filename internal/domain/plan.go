package domain

import "time"

// Entitlement is the capability tier granted to a user, independent of the
// billing lifecycle status.
type Entitlement string

const (
	EntitlementFree    Entitlement = "free"
	EntitlementTrial   Entitlement = "trial"
	EntitlementPremium Entitlement = "premium"
)

// Valid reports whether the value is one of the known tiers.
func (e Entitlement) Valid() bool {
	switch e {
	case EntitlementFree, EntitlementTrial, EntitlementPremium:
		return true
	}
	return false
}

// ParseEntitlement maps a raw string to an Entitlement, defaulting to free
// for anything unrecognized.
func ParseEntitlement(s string) Entitlement {
	e := Entitlement(s)
	if !e.Valid() {
		return EntitlementFree
	}
	return e
}

// SubscriptionStatus is the billing lifecycle stage of the subscription record.
type SubscriptionStatus string

const (
	StatusActive     SubscriptionStatus = "active"
	StatusCancelling SubscriptionStatus = "cancelling"
	StatusExpired    SubscriptionStatus = "expired"
	StatusRefunded   SubscriptionStatus = "refunded"
	StatusCancelled  SubscriptionStatus = "cancelled"
)

// Valid reports whether the value is one of the known lifecycle stages.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCancelling, StatusExpired, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// ParseSubscriptionStatus maps a raw string to a SubscriptionStatus,
// defaulting to cancelled for anything unrecognized.
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	st := SubscriptionStatus(s)
	if !st.Valid() {
		return StatusCancelled
	}
	return st
}

// GracePeriodDays is the window before expiration during which an active
// premium subscription gets the high-priority grace banner.
const GracePeriodDays = 7

// PlanState is the resolved subscription snapshot for one user. It is
// reconstructed on every resolution; only the trial/premium history bits and
// the instance id survive between resolutions.
type PlanState struct {
	Entitlement        Entitlement        `json:"entitlement"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	HasUsedTrial       bool               `json:"hasUsedTrial"`
	HasUsedPremium     bool               `json:"hasUsedPremium"`
	ExpirationDate     *time.Time         `json:"expirationDate,omitempty"`
	AutoRenewEnabled   bool               `json:"autoRenewEnabled"`
	SubscriptionType   string             `json:"subscriptionType,omitempty"`

	// PlanInstanceID is minted whenever entitlement or status changes and is
	// the dismissal scope for plan-status banners.
	PlanInstanceID string `json:"planInstanceId"`

	// BannerOverride carries the optional bannerMetadata.bannerType escape
	// hatch from the remote source. Empty means no override.
	BannerOverride BannerType `json:"-"`

	ResolvedAt time.Time `json:"resolvedAt"`
}

// DefaultPlanState is the degraded fallback used when neither the remote
// source nor any local mirror has data for the user.
func DefaultPlanState() *PlanState {
	return &PlanState{
		Entitlement:        EntitlementFree,
		SubscriptionStatus: StatusCancelled,
		ResolvedAt:         time.Now().UTC(),
	}
}

// DaysUntilExpiration returns the number of whole days until the expiration
// date, rounded down. It returns -1 when no expiration date is set.
func (p *PlanState) DaysUntilExpiration(now time.Time) int {
	if p.ExpirationDate == nil {
		return -1
	}
	d := p.ExpirationDate.Sub(now)
	if d < 0 {
		return int(d.Hours()/24) - 1
	}
	return int(d.Hours() / 24)
}

// InGracePeriod reports whether an active premium subscription is within
// GracePeriodDays of expiring.
func (p *PlanState) InGracePeriod(now time.Time) bool {
	if p.Entitlement != EntitlementPremium || p.SubscriptionStatus != StatusActive {
		return false
	}
	days := p.DaysUntilExpiration(now)
	return days >= 0 && days <= GracePeriodDays
}

// SameInstance reports whether two snapshots describe the same plan instance.
func (p *PlanState) SameInstance(other *PlanState) bool {
	if other == nil {
		return false
	}
	return p.PlanInstanceID != "" && p.PlanInstanceID == other.PlanInstanceID
}

// Transitioned reports whether the snapshot represents a different plan state
// than prev, which is when a new instance id must be minted.
func (p *PlanState) Transitioned(prev *PlanState) bool {
	if prev == nil {
		return true
	}
	return p.Entitlement != prev.Entitlement || p.SubscriptionStatus != prev.SubscriptionStatus
}
