package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier(testSecret, "authenticated")
	token, err := v.Sign(Viewer{ID: "user-1", Email: "a@puros.app"}, time.Hour)
	require.NoError(t, err)

	viewer, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", viewer.ID)
	assert.Equal(t, "a@puros.app", viewer.Email)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier(testSecret, "authenticated")

	expired, err := v.Sign(Viewer{ID: "user-1"}, -time.Hour)
	require.NoError(t, err)

	otherKey, err := NewJWTVerifier("another-secret-at-least-32-bytes!!", "authenticated").Sign(Viewer{ID: "user-1"}, time.Hour)
	require.NoError(t, err)

	wrongAud, err := NewJWTVerifier(testSecret, "anon").Sign(Viewer{ID: "user-1"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Audience:  jwt.ClaimStrings{"authenticated"},
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":    expired,
		"other key":  otherKey,
		"audience":   wrongAud,
		"no subject": noSubject,
		"alg none":   noneAlg,
		"garbage":    "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.Error(t, err)
		})
	}
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	var seen *Viewer
	handler := Authenticate(NewJWTVerifier(testSecret, ""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ViewerFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, seen)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")
	token, err := v.Sign(Viewer{ID: "user-7", Email: "u7@puros.app"}, time.Hour)
	require.NoError(t, err)

	var seen *Viewer
	handler := Authenticate(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ViewerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, "user-7", seen.ID)
}

func TestAuthenticate_InvalidTokenRejected(t *testing.T) {
	for name, header := range map[string]string{
		"bad scheme": "Basic abc",
		"no token":   "Bearer",
		"bad token":  "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			handler := Authenticate(NewJWTVerifier(testSecret, ""))(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "AUTH_REQUIRED", errorCode(t, rr))
		})
	}
}

func TestRequireViewer(t *testing.T) {
	called := false
	handler := RequireViewer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/r1/likes", nil))
	assert.False(t, called, "no state change may happen without a viewer")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "AUTH_REQUIRED", errorCode(t, rr))

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(WithViewer(req.Context(), &Viewer{ID: "u"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}
