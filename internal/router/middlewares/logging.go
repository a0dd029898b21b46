package middlewares

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// WithLogging logs requests and responses that contain useful information.
func WithLogging(h http.Handler) http.Handler {
	handler := func(rw http.ResponseWriter, r *http.Request) {
		clientIP, err := extractClientIP(r)
		if err != nil {
			log.Warn().Err(err).Msg("can't extract client ip")
			clientIP = ""
		}

		r = r.WithContext(context.WithValue(r.Context(), ContextIPAddress, clientIP))

		loggedRW := &responseWriterLogger{
			ResponseWriter: rw,
		}
		h.ServeHTTP(loggedRW, r)

		if loggedRW.statusCode != http.StatusOK {
			log.Ctx(r.Context()).
				Warn().
				Int("statusCode", loggedRW.statusCode).
				Str("clientIP", clientIP).
				Msg("non-200 status code response")
		}
	}
	return http.HandlerFunc(handler)
}

type responseWriterLogger struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseWriterLogger) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}

// extractClientIP prefers a load-balancer injected X-Forwarded-For header and
// falls back to the connection remote address.
func extractClientIP(r *http.Request) (string, error) {
	xForwardedFor := r.Header.Get("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(ips[0]), nil
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("parsing remote addr: %s", err)
	}
	return ip, nil
}
