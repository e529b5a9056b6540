package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/security"
)

type principalKey struct{}

// SecurityLevel mirrors the per-route authentication requirement.
type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota
	SecurityAuthenticated
)

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller resolved by the auth middleware.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

type authMiddleware struct {
	tokenManager security.TokenManager
}

func (m *authMiddleware) require(level SecurityLevel, next http.HandlerFunc) http.HandlerFunc {
	if level == SecurityPublic {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "unauthenticated", "authorization token is not provided")
			return
		}
		p, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}
		next(w, r.WithContext(withPrincipal(r.Context(), p)))
	}
}

func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.ToUpper(header[0:7]) == "BEARER " {
		header = header[7:]
	}
	header = strings.TrimSpace(header)
	return header, header != ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", time.Since(start).Milliseconds())
	})
}
