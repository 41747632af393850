package httpx

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/abodyssee/crm/pkg/slogx"
)

// FailureLimitConfig configures a sliding-window limiter that only counts
// failed requests. Successful requests never consume the budget.
type FailureLimitConfig struct {
	// MaxFailures is the number of failures tolerated inside Window.
	MaxFailures int
	// Window is the sliding window length.
	Window time.Duration
	// Message is returned with the 429 reply.
	Message string

	// OnFailure and OnLockout are optional hooks (metrics).
	OnFailure func(key string)
	OnLockout func(key string)

	// Now overrides the clock in tests.
	Now func() time.Time
}

// FailureLimiter tracks failure timestamps per key.
type FailureLimiter struct {
	cfg FailureLimitConfig

	mu          sync.Mutex
	failures    map[string][]time.Time
	lastCleanup time.Time
}

// NewFailureLimiter returns a limiter with defaults applied
// (5 failures per 15 minutes).
func NewFailureLimiter(cfg FailureLimitConfig) *FailureLimiter {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Message == "" {
		cfg.Message = "Too many failed attempts, please try again later"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &FailureLimiter{
		cfg:         cfg,
		failures:    make(map[string][]time.Time),
		lastCleanup: cfg.Now(),
	}
}

// RetryAfter reports whether key is locked out and, if so, how long until
// the oldest failure leaves the window.
func (l *FailureLimiter) RetryAfter(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.Now()
	recent := l.prune(key, now)
	if len(recent) < l.cfg.MaxFailures {
		return 0, false
	}
	return recent[0].Add(l.cfg.Window).Sub(now), true
}

// RecordFailure adds a failure for key at the current time.
func (l *FailureLimiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.Now()
	l.failures[key] = append(l.prune(key, now), now)
	l.maybeCleanup(now)
}

// Failures returns the number of failures for key still inside the window.
func (l *FailureLimiter) Failures(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key, l.cfg.Now()))
}

// prune drops timestamps older than the window. Caller holds mu.
func (l *FailureLimiter) prune(key string, now time.Time) []time.Time {
	ts := l.failures[key]
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == len(ts) {
		delete(l.failures, key)
		return nil
	}
	ts = ts[i:]
	l.failures[key] = ts
	return ts
}

// maybeCleanup drops idle keys once per window. Caller holds mu.
func (l *FailureLimiter) maybeCleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < l.cfg.Window {
		return
	}
	l.lastCleanup = now
	for key := range l.failures {
		l.prune(key, now)
	}
}

// Middleware rejects locked-out keys with 429 before calling next, and
// records a failure whenever next answers with a 4xx status other than 429.
// Server errors are not the client's fault and never count.
func (l *FailureLimiter) Middleware(keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("failure limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if wait, locked := l.RetryAfter(key); locked {
				retryAfter := max(int(wait.Seconds()), 1)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				log.Warn("failure limit exceeded", "key", key, "endpoint", r.URL.Path, "retry_after", retryAfter)
				if l.cfg.OnLockout != nil {
					l.cfg.OnLockout(key)
				}
				WriteError(w, http.StatusTooManyRequests, l.cfg.Message)
				return
			}

			rec := NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			if rec.Status >= http.StatusBadRequest && rec.Status < http.StatusInternalServerError &&
				rec.Status != http.StatusTooManyRequests {
				l.RecordFailure(key)
				if l.cfg.OnFailure != nil {
					l.cfg.OnFailure(key)
				}
			}
		})
	}
}
