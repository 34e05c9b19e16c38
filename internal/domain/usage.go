package domain

import "time"

// Resource is one of the metered quotas tracked per user.
type Resource string

const (
	ResourceOCRPages        Resource = "ocrPages"
	ResourceTTSRequests     Resource = "ttsRequests"
	ResourceTranslatedChars Resource = "translatedChars"
	ResourceStorageBytes    Resource = "storageBytes"
)

// Resources lists every tracked resource in a stable order.
var Resources = []Resource{
	ResourceOCRPages,
	ResourceTTSRequests,
	ResourceTranslatedChars,
	ResourceStorageBytes,
}

// UsageCounters is the consumed quota for one user within the current billing
// period. Counters only grow within a period; free-tier counters reset to zero
// on month rollover.
type UsageCounters struct {
	OCRPages        int64     `json:"ocrPages"`
	TTSRequests     int64     `json:"ttsRequests"`
	TranslatedChars int64     `json:"translatedChars"`
	StorageBytes    int64     `json:"storageBytes"`
	PeriodStart     time.Time `json:"periodStart"`
}

// Get returns the counter for a single resource.
func (u *UsageCounters) Get(r Resource) int64 {
	switch r {
	case ResourceOCRPages:
		return u.OCRPages
	case ResourceTTSRequests:
		return u.TTSRequests
	case ResourceTranslatedChars:
		return u.TranslatedChars
	case ResourceStorageBytes:
		return u.StorageBytes
	}
	return 0
}

// UsageLimits is the per-resource ceiling table for one tier.
type UsageLimits struct {
	OCRPages        int64 `json:"ocrPages"`
	TTSRequests     int64 `json:"ttsRequests"`
	TranslatedChars int64 `json:"translatedChars"`
	StorageBytes    int64 `json:"storageBytes"`
}

// Get returns the limit for a single resource.
func (l UsageLimits) Get(r Resource) int64 {
	switch r {
	case ResourceOCRPages:
		return l.OCRPages
	case ResourceTTSRequests:
		return l.TTSRequests
	case ResourceTranslatedChars:
		return l.TranslatedChars
	case ResourceStorageBytes:
		return l.StorageBytes
	}
	return 0
}

var (
	freeLimits = UsageLimits{
		OCRPages:        10,
		TTSRequests:     20,
		TranslatedChars: 10_000,
		StorageBytes:    100 * 1024 * 1024,
	}
	premiumLimits = UsageLimits{
		OCRPages:        1_000,
		TTSRequests:     2_000,
		TranslatedChars: 1_000_000,
		StorageBytes:    10 * 1024 * 1024 * 1024,
	}
)

// LimitsForEntitlement returns the ceiling table for a tier. Trial users are
// metered against the free table.
func LimitsForEntitlement(e Entitlement) UsageLimits {
	if e == EntitlementPremium {
		return premiumLimits
	}
	return freeLimits
}

// LimitFlags reports, per resource, whether the consumed counter has reached
// the plan-derived ceiling.
type LimitFlags map[Resource]bool

// AnyReached reports whether at least one resource is exhausted.
func (f LimitFlags) AnyReached() bool {
	for _, reached := range f {
		if reached {
			return true
		}
	}
	return false
}

// NoLimitsReached is the optimistic all-false result used when the evaluator
// cannot fetch counters.
func NoLimitsReached() LimitFlags {
	flags := make(LimitFlags, len(Resources))
	for _, r := range Resources {
		flags[r] = false
	}
	return flags
}
