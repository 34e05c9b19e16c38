package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"plan-banner-service/internal/domain"
)

// SupabaseSubscriptionRepository reads the locally synced `subscriptions`
// mirror row. It is the fallback when the edge function is unreachable.
type SupabaseSubscriptionRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseSubscriptionRepository creates a new subscription mirror reader
func NewSupabaseSubscriptionRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.SubscriptionMirror {
	return &SupabaseSubscriptionRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// Get retrieves the mirrored subscription row for a user
func (r *SupabaseSubscriptionRepository) Get(ctx context.Context, userID, token string) (*domain.SubscriptionRecord, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("subscriptions").
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription mirror: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(rows) == 0 {
		return nil, domain.ErrSubscriptionMissing
	}

	return r.mapToRecord(rows[0]), nil
}

// mapToRecord converts a mirror row to a SubscriptionRecord
func (r *SupabaseSubscriptionRepository) mapToRecord(data map[string]interface{}) *domain.SubscriptionRecord {
	record := &domain.SubscriptionRecord{
		Entitlement:        domain.ParseEntitlement(getString(data, "entitlement")),
		SubscriptionStatus: domain.ParseSubscriptionStatus(getString(data, "subscription_status")),
		HasUsedTrial:       getBool(data, "has_used_trial"),
		AutoRenewEnabled:   getBool(data, "auto_renew_enabled"),
		SubscriptionType:   getString(data, "subscription_type"),
	}

	if ts, ok := getTime(data, "expiration_date"); ok {
		record.ExpirationDate = &ts
	}

	return record
}

// Helper functions for type conversion
func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok && val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(data map[string]interface{}, key string) bool {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case bool:
			return v
		case string:
			return v == "true" || v == "1"
		case float64:
			return v != 0
		}
	}
	return false
}

func getInt64(data map[string]interface{}, key string) int64 {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

func getTime(data map[string]interface{}, key string) (time.Time, bool) {
	s := getString(data, key)
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
