package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httputil"
	"github.com/utafrali/puros/pkg/logger"
)

type contextKeyType string

const viewerKey contextKeyType = "viewer"

// Viewer is the identity verified from an access token.
type Viewer struct {
	ID    string
	Email string
}

// Claims are the access-token claims issued by the identity provider.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier validates a bearer token and returns the viewer it names.
type TokenVerifier interface {
	Verify(token string) (*Viewer, error)
}

// JWTVerifier verifies HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret   []byte
	audience string
	leeway   time.Duration
}

// NewJWTVerifier creates a verifier. An empty audience skips the aud check.
func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience, leeway: 30 * time.Second}
}

// Verify parses and validates token.
func (v *JWTVerifier) Verify(token string) (*Viewer, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("verify token: missing subject")
	}
	return &Viewer{ID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues a token for viewer. Used by tests and local tooling.
func (v *JWTVerifier) Sign(viewer Viewer, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: viewer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Authenticate resolves the viewer from a bearer token when one is present.
// Requests without an Authorization header continue anonymously; a malformed
// or invalid token is rejected with 401.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				httputil.WriteError(w, r, apperrors.AuthRequired("invalid authorization header format"), nil)
				return
			}

			viewer, err := verifier.Verify(token)
			if err != nil {
				httputil.WriteError(w, r, apperrors.AuthRequired("invalid or expired token"), nil)
				return
			}

			ctx := WithViewer(r.Context(), viewer)
			ctx = logger.WithViewerID(ctx, viewer.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireViewer rejects anonymous requests with 401 AUTH_REQUIRED.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFromContext(r.Context()) == nil {
			httputil.WriteError(w, r, apperrors.AuthRequired(""), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithViewer stores v in ctx.
func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFromContext returns the authenticated viewer, or nil.
func ViewerFromContext(ctx context.Context) *Viewer {
	if v, ok := ctx.Value(viewerKey).(*Viewer); ok {
		return v
	}
	return nil
}
