package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleBucketTTL is how long an untouched client bucket is kept.
const idleBucketTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a token bucket per client IP. Forwarding headers are read
// only when the connection comes from a trusted proxy.
type IPRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	trusted   []netip.Prefix
	now       func() time.Time
	lastSweep time.Time
}

// NewIPRateLimiter takes limit in events per second and the bucket size.
// trustedProxies holds IPs or CIDRs; unparsable entries are skipped.
func NewIPRateLimiter(limit rate.Limit, burst int, trustedProxies []string) *IPRateLimiter {
	l := &IPRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
	for _, p := range trustedProxies {
		if prefix, err := netip.ParsePrefix(p); err == nil {
			l.trusted = append(l.trusted, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(p); err == nil {
			l.trusted = append(l.trusted, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return l
}

// AuthRateLimiter guards login and register: perMinute attempts per IP with the
// given burst. Zero values fall back to 10 per minute and a burst of 5.
func AuthRateLimiter(perMinute, burst int, trustedProxies []string) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return NewIPRateLimiter(rate.Limit(float64(perMinute)/60.0), burst, trustedProxies)
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleBucketTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > idleBucketTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

func (l *IPRateLimiter) isTrusted(addr netip.Addr) bool {
	for _, p := range l.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP is the remote address, or the nearest untrusted hop in
// X-Forwarded-For when the remote address is a trusted proxy.
func (l *IPRateLimiter) clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	remote, err := netip.ParseAddr(host)
	if err != nil || !l.isTrusted(remote.Unmap()) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !l.isTrusted(hop.Unmap()) {
			return hop.Unmap().String()
		}
	}
	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return host
}

// Middleware answers 429 once the client IP runs out of tokens.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := "60"
	if l.limit > 0 && l.limit != rate.Inf {
		retryAfter = strconv.Itoa(int(1/float64(l.limit)) + 1)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.clientIP(r)) {
			w.Header().Set("Retry-After", retryAfter)
			writeJSONError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
