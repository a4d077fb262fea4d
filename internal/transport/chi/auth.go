package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
)

// protectedPrefix is the only path space that requires a key. Health and metrics stay open.
const protectedPrefix = "/api/"

// BearerAuthMiddleware checks "Authorization: Bearer <key>" on /api/ routes.
// With no non-empty key configured it is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, protectedPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			if msg := checkBearer(r.Header.Get("Authorization"), digests); msg != "" {
				logpkg.FromContext(r.Context(), nil).Info("Request rejected", zap.String("reason", msg))
				w.Header().Set("WWW-Authenticate", `Bearer realm="stylesearch"`)
				writeError(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkBearer returns an empty string for an accepted header, otherwise the rejection message.
// The scheme is case-insensitive; the key is not.
func checkBearer(header string, digests [][sha256.Size]byte) string {
	if header == "" {
		return "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "authorization header must use Bearer scheme"
	}
	if !keyMatches(digests, strings.TrimSpace(token)) {
		return "invalid api key"
	}
	return ""
}

// keyMatches compares fixed-size digests against every key, so neither the
// matching key nor key lengths show in timing.
func keyMatches(digests [][sha256.Size]byte, token string) bool {
	sum := sha256.Sum256([]byte(token))
	match := 0
	for i := range digests {
		match |= subtle.ConstantTimeCompare(digests[i][:], sum[:])
	}
	return match == 1
}
