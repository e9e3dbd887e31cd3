package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyClientIP struct{}
type contextKeyUserAgent struct{}
type contextKeyDevice struct{}

// ClientMetadata extracts the client IP, User-Agent, and a parsed device
// summary from the request and adds them to the context for handlers and the
// audit trail. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		ua := r.Header.Get("User-Agent")

		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyClientIP{}, ip)
		ctx = context.WithValue(ctx, contextKeyUserAgent{}, ua)
		ctx = context.WithValue(ctx, contextKeyDevice{}, deviceSummary(ua))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgent retrieves the raw User-Agent from the context.
func GetUserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(contextKeyUserAgent{}).(string); ok {
		return ua
	}
	return ""
}

// GetDeviceSummary retrieves the parsed device summary from the context.
func GetDeviceSummary(ctx context.Context) string {
	if d, ok := ctx.Value(contextKeyDevice{}).(string); ok {
		return d
	}
	return ""
}

// WithClientMetadata injects client metadata into a context. Useful for
// service unit tests that skip the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIP)
	ctx = context.WithValue(ctx, contextKeyUserAgent{}, userAgent)
	ctx = context.WithValue(ctx, contextKeyDevice{}, deviceSummary(userAgent))
	return ctx
}

// deviceSummary condenses a User-Agent into "browser/version on OS" for
// audit details without storing the full UA string twice.
func deviceSummary(ua string) string {
	if ua == "" {
		return "unknown"
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	os := parsed.OS()
	if name == "" {
		if parsed.Bot() {
			return "bot"
		}
		return "unknown"
	}
	if os == "" {
		os = "unknown OS"
	}
	return fmt.Sprintf("%s/%s on %s", name, version, os)
}

// ClientIPFromRequest extracts the client IP, honoring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For may carry a chain; the first hop is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port"; IPv6 is "[::1]:port".
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
