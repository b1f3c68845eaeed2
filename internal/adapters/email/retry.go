package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retry defaults: a short fixed delay between a small bounded number of
// attempts. No exponential growth — a reminder is only useful inside its
// tolerance window, so long backoffs would outlive the window anyway.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 5 * time.Second
)

// RetrySender wraps a Sender with bounded, fixed-delay retries. After the
// attempts are exhausted the last error is returned and the caller treats
// the notification as not sent.
type RetrySender struct {
	base     Sender
	attempts int
	delay    time.Duration
	sleep    func(time.Duration) // injectable for tests
}

// NewRetrySender creates a retrying wrapper around base.
// PRE: base is non-nil; attempts > 0
// POST: Returns a sender that attempts each send up to attempts times
func NewRetrySender(base Sender, attempts int, delay time.Duration) *RetrySender {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &RetrySender{
		base:     base,
		attempts: attempts,
		delay:    delay,
		sleep:    time.Sleep,
	}
}

// Send attempts the delivery up to the configured number of times, sleeping
// the fixed delay between failures.
// PRE: req is a valid SendRequest
// POST: Returns the first successful result, or the last error wrapped with
// the attempt count
func (s *RetrySender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		res, err := s.base.Send(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err
		slog.Warn("email_send_retry", "to", req.To, "attempt", attempt, "max_attempts", s.attempts, "error", err.Error())
		if attempt < s.attempts {
			select {
			case <-ctx.Done():
				return SendResult{}, ctx.Err()
			default:
			}
			s.sleep(s.delay)
		}
	}
	return SendResult{}, fmt.Errorf("send to %s failed after %d attempts: %w", req.To, s.attempts, lastErr)
}
