package domain

import "testing"

func TestLimitsForEntitlement(t *testing.T) {
	free := LimitsForEntitlement(EntitlementFree)
	trial := LimitsForEntitlement(EntitlementTrial)
	premium := LimitsForEntitlement(EntitlementPremium)

	if free != trial {
		t.Fatalf("expected trial to be metered against the free table")
	}
	if premium == free {
		t.Fatalf("expected premium ceilings to differ from free")
	}
	for _, r := range Resources {
		if premium.Get(r) <= free.Get(r) {
			t.Fatalf("expected premium ceiling for %s to exceed free", r)
		}
	}
}

func TestUsageCountersGet(t *testing.T) {
	u := &UsageCounters{
		OCRPages:        1,
		TTSRequests:     2,
		TranslatedChars: 3,
		StorageBytes:    4,
	}
	want := map[Resource]int64{
		ResourceOCRPages:        1,
		ResourceTTSRequests:     2,
		ResourceTranslatedChars: 3,
		ResourceStorageBytes:    4,
	}
	for r, n := range want {
		if got := u.Get(r); got != n {
			t.Fatalf("Get(%s) = %d, want %d", r, got, n)
		}
	}
	if u.Get(Resource("bogus")) != 0 {
		t.Fatalf("expected unknown resource to read as zero")
	}
}

func TestLimitFlagsAnyReached(t *testing.T) {
	flags := NoLimitsReached()
	if flags.AnyReached() {
		t.Fatalf("expected fresh flags to report nothing reached")
	}
	if len(flags) != len(Resources) {
		t.Fatalf("expected a flag per resource, got %d", len(flags))
	}

	flags[ResourceOCRPages] = true
	if !flags.AnyReached() {
		t.Fatalf("expected one exhausted resource to trip AnyReached")
	}

	var empty LimitFlags
	if empty.AnyReached() {
		t.Fatalf("expected nil flags to report nothing reached")
	}
}
