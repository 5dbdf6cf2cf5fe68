package webhook

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// jitter returns a factor in [-1, 1). Tests replace it.
var jitter = func() float64 { return rand.Float64()*2 - 1 }

// Delay returns how long to wait before retry number attempt. A positive
// retryAfter from the receiver wins over the computed backoff; both are
// capped at MaxDelay.
func (rc *RetryConfig) Delay(attempt int, retryAfter time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if retryAfter > 0 {
		return min(retryAfter, rc.MaxDelay)
	}

	delay := float64(rc.InitialDelay) * math.Pow(rc.Multiplier, float64(attempt-1))
	delay = min(delay, float64(rc.MaxDelay))
	delay += jitter() * delay * 0.1

	return time.Duration(delay)
}

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date. Anything else yields 0.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
