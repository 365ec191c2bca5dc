package ratelimiter

import (
	"math"
	"strconv"
	"time"
)

// Header names reported to clients
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// DefaultRetryAfter is used when a denied result carries no reset time
const DefaultRetryAfter = 60

// RetryAfterSeconds returns the whole seconds until resetTime, rounded up
func RetryAfterSeconds(resetTime, now time.Time) int {
	if resetTime.IsZero() {
		return DefaultRetryAfter
	}
	seconds := int(math.Ceil(resetTime.Sub(now).Seconds()))
	if seconds < 0 {
		return 0
	}
	return seconds
}

// Headers builds the rate limit response headers for result.
// Unconfigured operations produce no headers.
func Headers(result Result, now time.Time) map[string]string {
	if !result.Configured {
		return map[string]string{}
	}

	headers := map[string]string{
		HeaderLimit:     strconv.Itoa(result.Limit),
		HeaderRemaining: strconv.Itoa(result.Remaining),
		HeaderReset:     strconv.FormatInt(result.ResetTime.Unix(), 10),
	}

	if !result.Allowed {
		headers[HeaderRetryAfter] = strconv.Itoa(RetryAfterSeconds(result.ResetTime, now))
	}

	return headers
}
