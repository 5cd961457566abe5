package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ctxKey string

const ctxKeyClientIP ctxKey = "client_ip"

// ClientIP records the caller's best-effort address on the request context.
// The value is only used for audit logging and must not be trusted for
// access control: X-Forwarded-For is caller supplied.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKeyClientIP, ReadClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromContext returns the address stored by ClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKeyClientIP).(string)
	return ip
}

// ReadClientIP takes the first X-Forwarded-For hop, falling back to the
// host part of the connection's remote address.
func ReadClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
