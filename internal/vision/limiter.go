package vision

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultBackoff = time.Minute

// limiter paces calls to the model endpoint. After the endpoint answers 429
// it also holds every caller until the backoff window has passed.
type limiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
}

// newLimiter returns a limiter allowing perMinute calls per minute, or nil
// when perMinute is not positive.
func newLimiter(perMinute int) *limiter {
	if perMinute <= 0 {
		return nil
	}
	burst := max(1, perMinute/10)
	return &limiter{
		bucket: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

// Wait blocks until a call may proceed or ctx is done.
func (l *limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return l.bucket.Wait(ctx)
}

// backoff holds callers for d, or a minute when d is not positive.
func (l *limiter) backoff(d time.Duration) {
	if l == nil {
		return
	}
	if d <= 0 {
		d = defaultBackoff
	}
	l.mu.Lock()
	l.retryAt = time.Now().Add(d)
	l.mu.Unlock()
}
