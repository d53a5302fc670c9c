package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"intelhub.dev/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
}

// withAuth resolves the bearer token into a principal. It is a no-op when
// no token secret is configured.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="intelhub"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := a.tokens.Parse(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="intelhub", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{UserID: claims.Subject, Roles: claims.Roles})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guard rejects callers whose roles do not grant perm.
func (a *API) guard(perm string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.tokens != nil {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if !p.Can(perm) {
				writeError(w, r, http.StatusForbidden, "missing permission "+perm)
				return
			}
		}
		h(w, r)
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
