package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(id.String()))
	})
}

func TestJWTMiddleware(t *testing.T) {
	const secret = "s3cret"
	user := uuid.New()
	h := NewJWTMiddleware(secret, false).Authenticate(echoUser())

	valid := signed(t, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   user.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec := serve(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.String(), rec.Body.String())

	tests := map[string]string{
		"missing":      "",
		"wrong secret": "Bearer " + signed(t, "other", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: user.String(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}),
		"expired":      "Bearer " + signed(t, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: user.String(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}}),
		"no expiry":    "Bearer " + signed(t, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: user.String()}}),
		"bad subject":  "Bearer " + signed(t, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}),
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
		})
	}
}

func TestDevHeaderIdentity(t *testing.T) {
	user := uuid.New()
	h := NewJWTMiddleware("", false).Authenticate(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevUserHeader, user.String())
	rec := serve(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.String(), rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequireRole(t *testing.T) {
	const secret = "s3cret"
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := NewJWTMiddleware(secret, false).Authenticate(RequireRole(RoleAdmin)(ok))

	for role, want := range map[string]int{RoleAdmin: http.StatusNoContent, "": http.StatusForbidden} {
		tok := signed(t, secret, Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		assert.Equal(t, want, serve(h, req).Code, role)
	}

	assert.Equal(t, http.StatusUnauthorized, serve(RequireRole(RoleAdmin)(ok), httptest.NewRequest(http.MethodPost, "/", nil)).Code)
}

func TestDevRoleHeaderNeedsOptIn(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	for devRoles, want := range map[bool]int{false: http.StatusForbidden, true: http.StatusNoContent} {
		h := NewJWTMiddleware("", devRoles).Authenticate(RequireRole(RoleAdmin)(ok))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(DevUserHeader, uuid.NewString())
		req.Header.Set(DevRoleHeader, RoleAdmin)
		assert.Equal(t, want, serve(h, req).Code, "devRoles=%v", devRoles)
	}
}
