// Package auth issues and verifies the signed bearer tokens that carry the
// authenticated principal, and provides the middleware that loads the
// principal into the request context.
//
// Session tokens are HS256 JWTs carrying (subject id, role set) with no
// expiry; clients present them in the x-auth-token header (the Authorization
// bearer form is accepted too).
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/instiq/caritas/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HeaderName is the header clients use to present their session token.
const HeaderName = "x-auth-token"

var (
	// ErrInvalidToken is returned when a token fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid auth token")
)

// Principal is the authenticated caller injected into the request context.
type Principal struct {
	UserID primitive.ObjectID
	Email  string
	Roles  models.RoleSet
}

// Claims is the JWT claim set for session tokens.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens.
type TokenManager struct {
	key []byte
}

// NewTokenManager creates a TokenManager with the given signing key.
func NewTokenManager(key string) (*TokenManager, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("auth: signing key must not be empty")
	}
	return &TokenManager{key: []byte(key)}, nil
}

// Issue signs a session token for the user. Session tokens carry no expiry;
// one-time credentials (e-mail verify, password reset) are stored tokens on
// the owning entity, not JWTs.
func (m *TokenManager) Issue(u *models.User) (string, error) {
	claims := Claims{
		Email: u.Email,
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: u.ID.Hex(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Verify checks the signature and decodes the principal.
func (m *TokenManager) Verify(token string) (*Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Principal{UserID: uid, Email: claims.Email, Roles: claims.Roles}, nil
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentUser returns the principal and a "found?" flag.
func CurrentUser(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(principalKey).(*Principal)
	return p, ok
}

// WithPrincipal injects a principal into the request. Exposed for tests.
func WithPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// LoadPrincipal injects the caller into context when a valid token is
// presented. Requests without a token pass through anonymously; endpoints
// that require auth use RequireSignedIn.
func (m *TokenManager) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := tokenFromRequest(r); tok != "" {
			if p, err := m.Verify(tok); err == nil {
				r = WithPrincipal(r, p)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if tok := r.Header.Get(HeaderName); tok != "" {
		return tok
	}
	bearer := r.Header.Get("Authorization")
	if strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimPrefix(bearer, "Bearer ")
	}
	return ""
}
