package chi

import (
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// AuthPolicy decides which requests need a bearer token.
type AuthPolicy struct {
	APIKeys []string
	// PublicReads lets GET and HEAD through without a token.
	// Writes always require one once a key is configured.
	PublicReads bool
}

func (p AuthPolicy) requiresToken(r *http.Request) bool {
	if _, ok := exemptPaths[r.URL.Path]; ok {
		return false
	}
	if p.PublicReads && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		return false
	}
	return true
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If the policy has no keys, authentication is disabled (pass-through).
func BearerAuthMiddleware(policy AuthPolicy) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(policy.APIKeys))
	for _, k := range policy.APIKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !policy.requiresToken(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized,
					"authorization header must carry a Bearer token")
				return
			}
			if _, ok := validKeys[token]; !ok {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token; the scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
