package service

import (
	"context"
	"time"

	"plan-banner-service/internal/domain"
)

type mockConfig struct {
	planTTL  time.Duration
	usageTTL time.Duration
}

func newMockConfig() *mockConfig {
	return &mockConfig{planTTL: 15 * time.Minute, usageTTL: 5 * time.Minute}
}

func (c *mockConfig) GetServerPort() string           { return "8080" }
func (c *mockConfig) GetLogLevel() string             { return "error" }
func (c *mockConfig) GetSupabaseURL() string          { return "" }
func (c *mockConfig) GetSupabaseKey() string          { return "" }
func (c *mockConfig) GetDataDir() string              { return "" }
func (c *mockConfig) GetSubscriptionFunction() string { return "subscription-status" }
func (c *mockConfig) GetPlanCacheTTL() time.Duration  { return c.planTTL }
func (c *mockConfig) GetUsageCacheTTL() time.Duration { return c.usageTTL }
func (c *mockConfig) GetRemoteTimeout() time.Duration { return time.Second }

type mockSubscriptionSource struct {
	record  *domain.SubscriptionRecord
	err     error
	calls   int
	failFor int // fail this many calls before succeeding
}

func (m *mockSubscriptionSource) Fetch(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionRecord, error) {
	m.calls++
	if m.failFor > 0 && m.calls <= m.failFor {
		return nil, domain.ErrRemoteUnavailable
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

type mockSubscriptionMirror struct {
	record *domain.SubscriptionRecord
	err    error
	calls  int
}

func (m *mockSubscriptionMirror) Get(ctx context.Context, userID, token string) (*domain.SubscriptionRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

type mockUsageRepo struct {
	counters   *domain.UsageCounters
	err        error
	resetCalls int
	resetErr   error
}

func (m *mockUsageRepo) Get(ctx context.Context, userID, token string) (*domain.UsageCounters, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.counters, nil
}

func (m *mockUsageRepo) Reset(ctx context.Context, userID, token string) error {
	m.resetCalls++
	return m.resetErr
}

type dismissKey struct {
	userID   string
	banner   domain.BannerType
	instance string
}

// mockDismissalStore is an in-memory DismissalStore with optional injected
// read/write errors.
type mockDismissalStore struct {
	flags   map[dismissKey]bool
	kv      map[string]string
	readErr error
	kvErr   error
}

func newMockDismissalStore() *mockDismissalStore {
	return &mockDismissalStore{
		flags: make(map[dismissKey]bool),
		kv:    make(map[string]string),
	}
}

func (m *mockDismissalStore) key(userID string, banner domain.BannerType, instanceID string) dismissKey {
	if banner.IsUsageLimit() {
		instanceID = ""
	}
	return dismissKey{userID: userID, banner: banner, instance: instanceID}
}

func (m *mockDismissalStore) IsDismissed(ctx context.Context, userID string, banner domain.BannerType, instanceID string) (bool, error) {
	if m.readErr != nil {
		return false, m.readErr
	}
	return m.flags[m.key(userID, banner, instanceID)], nil
}

func (m *mockDismissalStore) Dismiss(ctx context.Context, userID string, banner domain.BannerType, instanceID string) error {
	m.flags[m.key(userID, banner, instanceID)] = true
	return nil
}

func (m *mockDismissalStore) ResetAll(ctx context.Context, userID string) error {
	for k := range m.flags {
		if k.userID == userID {
			delete(m.flags, k)
		}
	}
	for k := range m.kv {
		if len(k) > len(userID) && k[:len(userID)] == userID {
			delete(m.kv, k)
		}
	}
	return nil
}

func (m *mockDismissalStore) ResetUsageDismissals(ctx context.Context, userID string) error {
	delete(m.flags, m.key(userID, domain.BannerUsageLimitFree, ""))
	delete(m.flags, m.key(userID, domain.BannerUsageLimitPro, ""))
	return nil
}

func (m *mockDismissalStore) GetValue(ctx context.Context, userID, key string) (string, error) {
	if m.kvErr != nil {
		return "", m.kvErr
	}
	return m.kv[userID+"/"+key], nil
}

func (m *mockDismissalStore) SetValue(ctx context.Context, userID, key, value string) error {
	if m.kvErr != nil {
		return m.kvErr
	}
	m.kv[userID+"/"+key] = value
	return nil
}
