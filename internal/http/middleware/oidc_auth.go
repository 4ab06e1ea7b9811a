package middleware

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hodie-labs/hodie-platform/internal/identity"
)

// OIDCConfig holds the external identity provider configuration for JWT
// validation.
type OIDCConfig struct {
	IssuerURL string // e.g. https://hodie.eu.auth0.com
	Audience  string // API audience for aud validation
}

// OIDCClaims represents the claims in a provider-issued JWT.
type OIDCClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// User maps the claims to the external identity record.
func (c *OIDCClaims) User() *identity.User {
	return &identity.User{
		ID:      c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}
}

// jwksCache caches the JWKS keys from the identity provider.
type jwksCache struct {
	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

var jwksCaches = make(map[string]*jwksCache)
var jwksCachesMu sync.RWMutex

// OIDCAuth validates bearer JWTs issued by the configured identity provider
// and rejects requests without one. Use for routes that mutate user state.
func OIDCAuth(cfg OIDCConfig) func(http.Handler) http.Handler {
	return oidcMiddleware(cfg, true)
}

// OIDCOptional attaches the authenticated user when a valid bearer token is
// presented and passes the request through anonymously otherwise. The
// session gate consumes the absence of a user as the unauthenticated input,
// not as a request error.
func OIDCOptional(cfg OIDCConfig) func(http.Handler) http.Handler {
	return oidcMiddleware(cfg, false)
}

func oidcMiddleware(cfg OIDCConfig, required bool) func(http.Handler) http.Handler {
	if cfg.IssuerURL == "" {
		// Not configured: optional routes stay anonymous, required routes
		// reject everything.
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if required {
					http.Error(w, `{"error":"identity provider not configured"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	jwksURL := issuer + "/.well-known/jwks.json"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				if required {
					http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(auth, "Bearer ")

			claims, err := validateToken(tokenString, issuer, jwksURL, cfg.Audience)
			if err != nil {
				if required {
					http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := identity.WithUser(r.Context(), claims.User())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateToken(tokenString, issuer, jwksURL, audience string) (*OIDCClaims, error) {
	// Parse the token header to get the key ID.
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &OIDCClaims{})
	if err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("missing key id in token")
	}

	pubKey, err := getPublicKey(jwksURL, kid, issuer)
	if err != nil {
		return nil, fmt.Errorf("get public key: %w", err)
	}

	claims := &OIDCClaims{}
	opts := []jwt.ParserOption{jwt.WithIssuer(issuer), jwt.WithExpirationRequired()}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	validated, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pubKey, nil
	}, opts...)
	if err != nil || !validated.Valid {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}

// getPublicKey fetches and caches the public key from the provider JWKS.
func getPublicKey(jwksURL, kid, issuer string) (*rsa.PublicKey, error) {
	jwksCachesMu.RLock()
	cache, exists := jwksCaches[issuer]
	jwksCachesMu.RUnlock()

	if exists {
		cache.mu.RLock()
		if time.Now().Before(cache.expires) {
			if key, ok := cache.keys[kid]; ok {
				cache.mu.RUnlock()
				return key, nil
			}
		}
		cache.mu.RUnlock()
	}

	keys, err := fetchJWKS(jwksURL)
	if err != nil {
		return nil, err
	}

	jwksCachesMu.Lock()
	jwksCaches[issuer] = &jwksCache{
		keys:    keys,
		expires: time.Now().Add(1 * time.Hour),
	}
	jwksCachesMu.Unlock()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	return key, nil
}

// jwksResponse represents the JWKS response from the identity provider.
type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// fetchJWKS fetches the JWKS from the given URL.
func fetchJWKS(url string) (map[string]*rsa.PublicKey, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed with status %d", resp.StatusCode)
	}

	var jwks jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}

		pubKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		keys[key.Kid] = pubKey
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no valid RSA keys found in JWKS")
	}

	return keys, nil
}

// parseRSAPublicKey parses RSA public key components from base64url-encoded strings.
func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}
