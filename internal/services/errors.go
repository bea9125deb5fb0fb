package services

import "errors"

// Sentinel errors returned by the review service.
var (
	ErrReviewNotFound = errors.New("review not found")
	ErrNoResult       = errors.New("review produced no rows")
)
