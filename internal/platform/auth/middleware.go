package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const defaultRealm = "genid"

// Optional marks requests that may proceed without a token. A valid token on
// such a request still attaches its claims.
type Optional func(r *http.Request) bool

// Middleware authenticates bearer tokens issued by the identity provider.
type Middleware struct {
	Config   Config
	Optional Optional
	Realm    string
}

// NewMiddleware constructs a Middleware. A nil optional makes every route require a token.
func NewMiddleware(cfg Config, optional Optional) Middleware {
	return Middleware{Config: cfg, Optional: optional, Realm: defaultRealm}
}

// Wrap attaches claims to the request context or answers 401 with a problem body.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticate(r)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		case m.Optional != nil && m.Optional(r):
			next.ServeHTTP(w, r)
		default:
			m.reject(w, err)
		}
	})
}

func (m Middleware) authenticate(r *http.Request) (*Claims, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, ErrInvalidToken
	}
	return Parse(token, m.Config)
}

func (m Middleware) reject(w http.ResponseWriter, err error) {
	realm := m.Realm
	if realm == "" {
		realm = defaultRealm
	}
	challenge := fmt.Sprintf("Bearer realm=%q", realm)
	if errors.Is(err, ErrInvalidToken) {
		challenge += `, error="invalid_token"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"type": "unauthorized", "detail": err.Error()})
}
