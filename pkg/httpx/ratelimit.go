package httpx

import (
	"math"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abodyssee/crm/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket refilled with RequestsPerWindow tokens
// every Window and holding at most Burst tokens.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Rate limit profiles. Each one can be tuned with RATELIMIT_{NAME}_REQUESTS,
// RATELIMIT_{NAME}_WINDOW and RATELIMIT_{NAME}_BURST.
var (
	// StrictLimit guards the public contact form: 5 per minute per address.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit covers API writes made by staff.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 30, Window: time.Minute, Burst: 30}

	// LenientLimit covers API reads, the login page and health probes.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 120, Window: time.Minute, Burst: 120}

	// PublicLimit covers scripts and the session status probe.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = LimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = LimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = LimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = LimitFromEnv("PUBLIC", PublicLimit)
}

// LimitFromEnv overlays RATELIMIT_{name}_* variables on def. The window
// accepts a duration ("90s", "5m") or a bare number of seconds. Invalid or
// non-positive values are ignored.
func LimitFromEnv(name string, def RateLimitConfig) RateLimitConfig {
	prefix := "RATELIMIT_" + name + "_"
	cfg := def

	if n, ok := positiveInt(os.Getenv(prefix + "REQUESTS")); ok {
		cfg.RequestsPerWindow = n
	}
	if v := os.Getenv(prefix + "WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Window = d
		} else if secs, ok := positiveInt(v); ok {
			cfg.Window = time.Duration(secs) * time.Second
		}
	}
	if n, ok := positiveInt(os.Getenv(prefix + "BURST")); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil && n > 0
}

// KeyExtractor groups requests into buckets. An empty key bypasses the limit.
type KeyExtractor func(*http.Request) string

// DefaultTrustedProxyHops is the number of reverse proxies in front of the
// service in production.
const DefaultTrustedProxyHops = 1

// IPKeyExtractor returns the client address as seen by the one trusted
// reverse proxy. See ForwardedIPExtractor.
func IPKeyExtractor(r *http.Request) string {
	return clientIP(r, DefaultTrustedProxyHops)
}

// ForwardedIPExtractor returns the client address when hops reverse proxies
// sit in front of the service. Each proxy appends the address it received
// the request from to X-Forwarded-For, so only the last hops entries are
// trustworthy: the entry hops positions from the right is the client. With
// fewer entries the leftmost one is used. Anything unparsable, and every
// request when hops is zero, falls back to the connection address.
func ForwardedIPExtractor(hops int) KeyExtractor {
	return func(r *http.Request) string {
		return clientIP(r, hops)
	}
}

func clientIP(r *http.Request, hops int) string {
	if hops > 0 {
		var entries []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			entries = append(entries, strings.Split(v, ",")...)
		}
		if len(entries) > 0 {
			if ip, ok := parseIP(entries[max(len(entries)-hops, 0)]); ok {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

// UserIDKeyExtractor returns the admin bound to the request session, or "".
func UserIDKeyExtractor(r *http.Request) string {
	userID, _ := UserIDFromContext(r.Context())
	return userID
}

// bucketSet hands out one token bucket per key and forgets buckets that
// stayed idle longer than idleAfter.
type bucketSet struct {
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	now       func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// normalized falls back to StrictLimit for unusable configs and defaults
// the burst to the window allowance.
func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		c = StrictLimit
	}
	if c.Burst <= 0 {
		c.Burst = c.RequestsPerWindow
	}
	return c
}

func newBucketSet(cfg RateLimitConfig, now func() time.Time) *bucketSet {
	return &bucketSet{
		limit:     rate.Every(cfg.Window / time.Duration(cfg.RequestsPerWindow)),
		burst:     cfg.Burst,
		idleAfter: max(2*cfg.Window, 10*time.Minute),
		now:       now,
		buckets:   make(map[string]*bucket),
	}
}

// take consumes one token for key. When the bucket is empty it reports how
// long until the next token.
func (s *bucketSet) take(key string) (remaining int, wait time.Duration, ok bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.nextSweep) {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > s.idleAfter {
				delete(s.buckets, k)
			}
		}
		s.nextSweep = now.Add(time.Minute)
	}

	b, found := s.buckets[key]
	if !found {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return int(math.Floor(b.limiter.TokensAt(now))), 0, true
	}

	r := b.limiter.ReserveN(now, 1)
	wait = r.DelayFrom(now)
	r.CancelAt(now)
	return 0, wait, false
}

// RateLimitMiddleware limits requests per key with a token bucket and
// answers 429 with Retry-After and RateLimit-* headers once it is empty.
func RateLimitMiddleware(cfg RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return rateLimit(cfg, keyExtractor, time.Now)
}

func rateLimit(cfg RateLimitConfig, keyExtractor KeyExtractor, now func() time.Time) Middleware {
	cfg = cfg.normalized()
	set := newBucketSet(cfg, now)
	policy := strconv.Itoa(cfg.RequestsPerWindow) + ";w=" + strconv.Itoa(int(cfg.Window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, not limited")
				next.ServeHTTP(w, r)
				return
			}

			remaining, wait, ok := set.take(key)

			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			h.Set("RateLimit-Policy", policy)
			h.Set("RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("RateLimit-Reset", strconv.Itoa(retryAfter))

				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
					"retry_after", retryAfter,
				)
				WriteError(w, http.StatusTooManyRequests, "Trop de requêtes, veuillez réessayer plus tard.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByUser limits by admin, so colleagues behind one office address
// do not share a bucket. Anonymous requests fall back to anon, or to
// IPKeyExtractor when anon is nil.
func RateLimitByUser(cfg RateLimitConfig, anon KeyExtractor) Middleware {
	if anon == nil {
		anon = IPKeyExtractor
	}
	return RateLimitMiddleware(cfg, func(r *http.Request) string {
		if id := UserIDKeyExtractor(r); id != "" {
			return "user:" + id
		}
		return "ip:" + anon(r)
	})
}
