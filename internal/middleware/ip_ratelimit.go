package middleware

import (
	"net"
	"net/http"
)

// NewIPRateLimitMiddleware limits unauthenticated endpoints per client
// address. chi's RealIP must run first so proxies do not share one bucket.
func NewIPRateLimitMiddleware(limiter Limiter, limit int, scope string) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		scope:   scope,
		subject: clientIP,
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
