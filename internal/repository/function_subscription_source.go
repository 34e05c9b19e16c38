package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"plan-banner-service/internal/domain"
)

// FunctionSubscriptionSource fetches the authoritative subscription state from
// the subscription-status edge function.
type FunctionSubscriptionSource struct {
	baseURL      string
	apiKey       string
	functionName string
	httpClient   *http.Client
	logger       domain.Logger
}

// NewFunctionSubscriptionSource creates a subscription source that invokes the
// function at {baseURL}/functions/v1/{functionName}.
func NewFunctionSubscriptionSource(config domain.Config, logger domain.Logger) domain.SubscriptionSource {
	return &FunctionSubscriptionSource{
		baseURL:      config.GetSupabaseURL(),
		apiKey:       config.GetSupabaseKey(),
		functionName: config.GetSubscriptionFunction(),
		httpClient:   &http.Client{Timeout: config.GetRemoteTimeout()},
		logger:       logger,
	}
}

type subscriptionStatusRequest struct {
	UserID                string `json:"userId"`
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
	ForceRefresh          bool   `json:"forceRefresh,omitempty"`
}

type subscriptionStatusResponse struct {
	Success      bool `json:"success"`
	Subscription *struct {
		Entitlement        string `json:"entitlement"`
		SubscriptionStatus string `json:"subscriptionStatus"`
		HasUsedTrial       bool   `json:"hasUsedTrial"`
		ExpirationDate     string `json:"expirationDate"`
		AutoRenewEnabled   bool   `json:"autoRenewEnabled"`
		SubscriptionType   string `json:"subscriptionType"`
		BannerMetadata     *struct {
			BannerType string `json:"bannerType"`
		} `json:"bannerMetadata"`
	} `json:"subscription"`
}

// Fetch invokes the edge function and parses the subscription payload.
func (s *FunctionSubscriptionSource) Fetch(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionRecord, error) {
	body, err := json.Marshal(subscriptionStatusRequest{
		UserID:                req.UserID,
		OriginalTransactionID: req.OriginalTransactionID,
		ForceRefresh:          req.ForceRefresh,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := s.baseURL + "/functions/v1/" + s.functionName
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	// Forward the user's token so the function resolves the caller; the anon
	// key is still required by the functions gateway.
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", s.apiKey)
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	var parsed subscriptionStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if !parsed.Success || parsed.Subscription == nil {
		return nil, domain.ErrMalformedResponse
	}

	sub := parsed.Subscription
	record := &domain.SubscriptionRecord{
		Entitlement:        domain.ParseEntitlement(sub.Entitlement),
		SubscriptionStatus: domain.ParseSubscriptionStatus(sub.SubscriptionStatus),
		HasUsedTrial:       sub.HasUsedTrial,
		AutoRenewEnabled:   sub.AutoRenewEnabled,
		SubscriptionType:   sub.SubscriptionType,
	}

	if sub.ExpirationDate != "" {
		if ts, err := time.Parse(time.RFC3339, sub.ExpirationDate); err == nil {
			record.ExpirationDate = &ts
		} else {
			s.logger.Warn("Ignoring unparseable expiration date", "value", sub.ExpirationDate)
		}
	}

	if sub.BannerMetadata != nil {
		if bt, ok := domain.ParseBannerType(sub.BannerMetadata.BannerType); ok {
			record.BannerOverride = bt
		}
	}

	return record, nil
}
