package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"media-transcoder/internal/logging"
	"media-transcoder/internal/metrics"
)

// APIKeyHeader is the alternative to a bearer token.
const APIKeyHeader = "X-API-Key"

// APIKeyConfig configures API key authentication.
type APIKeyConfig struct {
	// Hash is the bcrypt hash of the key. Empty disables the check.
	Hash string
	// ExemptPaths are served without a key.
	ExemptPaths []string
}

// DefaultAPIKeyConfig leaves health and version probes open.
func DefaultAPIKeyConfig(hash string) APIKeyConfig {
	return APIKeyConfig{
		Hash:        hash,
		ExemptPaths: []string{"/health", "/healthz", "/livez", "/readyz", "/version"},
	}
}

// keyCache remembers the digest of the last accepted key so bcrypt runs
// once per key rather than once per request.
type keyCache struct {
	mu     sync.RWMutex
	digest [sha256.Size]byte
	valid  bool
}

func (c *keyCache) matches(d [sha256.Size]byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid && subtle.ConstantTimeCompare(c.digest[:], d[:]) == 1
}

func (c *keyCache) store(d [sha256.Size]byte) {
	c.mu.Lock()
	c.digest = d
	c.valid = true
	c.mu.Unlock()
}

// APIKey returns middleware that requires a key matching config.Hash,
// sent either as "Authorization: Bearer <key>" or in X-API-Key.
func APIKey(config APIKeyConfig) func(http.Handler) http.Handler {
	hash := []byte(strings.TrimSpace(config.Hash))
	cache := &keyCache{}

	return func(next http.Handler) http.Handler {
		if len(hash) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range config.ExemptPaths {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := presentedKey(r)
			if key == "" {
				metrics.AuthFailures.WithLabelValues("missing").Inc()
				unauthorized(w)
				return
			}

			digest := sha256.Sum256([]byte(key))
			if !cache.matches(digest) {
				if err := bcrypt.CompareHashAndPassword(hash, []byte(key)); err != nil {
					logging.Debug("API key rejected for %s %s", r.Method, sanitizeLogField(r.URL.Path))
					metrics.AuthFailures.WithLabelValues("invalid").Inc()
					unauthorized(w)
					return
				}
				cache.store(digest)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "bearer "
		if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
			return strings.TrimSpace(auth[len(prefix):])
		}
	}
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="transcoder"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}
