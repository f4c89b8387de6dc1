package middleware

import (
	"context"
	"net/http"
	"strings"

	"vet-clinic/internal/ports/auth"
)

// Headers del modo dev (sin verifier).
const (
	HeaderDebugUserID   = "X-Debug-User-ID"
	HeaderDebugRole     = "X-Debug-Role"
	HeaderDebugClinicID = "X-Debug-Clinic-ID"
	HeaderDebugEmail    = "X-Debug-Email"
)

// DebugHeaders para CORS.
var DebugHeaders = []string{HeaderDebugUserID, HeaderDebugRole, HeaderDebugClinicID, HeaderDebugEmail}

const defaultDevRole = "STAFF"

type claimsKey struct{}

// AuthContext pone auth.Claims en el contexto cuando se pueden resolver.
// Con verifier: Bearer token; sin verifier: headers X-Debug-*.
// Nunca corta el request: 401/403 los decide el handler vía access.Require.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	resolve := debugClaims
	if verifier != nil {
		resolve = func(r *http.Request) (auth.Claims, bool) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				return auth.Claims{}, false
			}
			c, err := verifier.Verify(r.Context(), token)
			return c, err == nil
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, ok := resolve(r); ok {
				r = r.WithContext(WithClaims(r.Context(), c))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func debugClaims(r *http.Request) (auth.Claims, bool) {
	uid := strings.TrimSpace(r.Header.Get(HeaderDebugUserID))
	if uid == "" {
		return auth.Claims{}, false
	}
	c := auth.Claims{
		UserID:   uid,
		Email:    strings.TrimSpace(r.Header.Get(HeaderDebugEmail)),
		Role:     strings.TrimSpace(r.Header.Get(HeaderDebugRole)),
		ClinicID: strings.TrimSpace(r.Header.Get(HeaderDebugClinicID)),
	}
	if c.Role == "" {
		c.Role = defaultDevRole
	}
	return c, true
}

// WithClaims inyecta claims (jobs/tests que no pasan por HTTP).
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return c, ok
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
