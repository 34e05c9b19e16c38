package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"plan-banner-service/internal/domain"
)

// SupabaseUsageRepository reads the per-user `usage_counters` row. Counters
// are incremented elsewhere in the app; this subsystem only reads and resets.
type SupabaseUsageRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseUsageRepository creates a new usage counters reader
func NewSupabaseUsageRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.UsageRepository {
	return &SupabaseUsageRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// Get retrieves the current usage counters for a user
func (r *SupabaseUsageRepository) Get(ctx context.Context, userID, token string) (*domain.UsageCounters, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("usage_counters").
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage counters: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(rows) == 0 {
		// A user with no row has consumed nothing this period.
		return &domain.UsageCounters{PeriodStart: monthStart(time.Now().UTC())}, nil
	}

	return r.mapToCounters(rows[0]), nil
}

// Reset zeroes every counter and starts a fresh period for the user
func (r *SupabaseUsageRepository) Reset(ctx context.Context, userID, token string) error {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	data := map[string]interface{}{
		"user_id":          userID,
		"ocr_pages":        0,
		"tts_requests":     0,
		"translated_chars": 0,
		"storage_bytes":    0,
		"period_start":     monthStart(time.Now().UTC()).Format(time.RFC3339),
		"updated_at":       time.Now().UTC().Format(time.RFC3339),
	}

	// Use upsert to insert or update
	_, _, err = client.From("usage_counters").
		Upsert(data, "user_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to reset usage counters: %w", err)
	}

	r.logger.Info("Usage counters reset", "user_id", userID)
	return nil
}

// mapToCounters converts a usage row to a UsageCounters struct
func (r *SupabaseUsageRepository) mapToCounters(data map[string]interface{}) *domain.UsageCounters {
	counters := &domain.UsageCounters{
		OCRPages:        getInt64(data, "ocr_pages"),
		TTSRequests:     getInt64(data, "tts_requests"),
		TranslatedChars: getInt64(data, "translated_chars"),
		StorageBytes:    getInt64(data, "storage_bytes"),
	}

	if ts, ok := getTime(data, "period_start"); ok {
		counters.PeriodStart = ts
	}

	return counters
}

// monthStart truncates a timestamp to the first instant of its month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
