package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Header names trusted when no signing secret is configured.
const (
	DevUserHeader = "X-User-ID"
	DevRoleHeader = "X-User-Role"
)

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

type JWTMiddleware struct {
	secret   []byte
	devRoles bool
}

// NewJWTMiddleware verifies HMAC-signed bearer tokens whose subject is the
// user id. With an empty secret the caller is taken from DevUserHeader
// instead, which is only meant for local development. DevRoleHeader is
// honored only when devRoles is set; otherwise dev callers have no role.
func NewJWTMiddleware(secret string, devRoles bool) *JWTMiddleware {
	if secret == "" {
		slog.Warn("JWT secret not set, trusting " + DevUserHeader + " header")
		if devRoles {
			slog.Warn("AUTH_DEV_ROLES enabled, any caller can claim a role via " + DevRoleHeader)
		}
	}
	return &JWTMiddleware{secret: []byte(secret), devRoles: devRoles}
}

func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			id  Identity
			err error
		)
		if len(m.secret) == 0 {
			id, err = m.devIdentity(r)
		} else {
			id, err = m.tokenIdentity(r)
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (m *JWTMiddleware) tokenIdentity(r *http.Request) (Identity, error) {
	tokenStr := extractBearerToken(r)
	if tokenStr == "" {
		return Identity{}, fmt.Errorf("missing authorization token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid user ID in token")
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}

func (m *JWTMiddleware) devIdentity(r *http.Request) (Identity, error) {
	userID, err := uuid.Parse(r.Header.Get(DevUserHeader))
	if err != nil {
		return Identity{}, fmt.Errorf("missing or invalid %s header", DevUserHeader)
	}
	id := Identity{UserID: userID}
	if m.devRoles {
		id.Role = r.Header.Get(DevRoleHeader)
	}
	return id, nil
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// UserFromContext returns the caller's user id, if authenticated.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id.UserID, ok
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
