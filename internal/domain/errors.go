package domain

import "errors"

// Domain errors
var (
	ErrRemoteUnavailable   = errors.New("subscription source unavailable")
	ErrMalformedResponse   = errors.New("malformed subscription response")
	ErrSubscriptionMissing = errors.New("no subscription record")
	ErrInvalidBannerType   = errors.New("invalid banner type")
)
