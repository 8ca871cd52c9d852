package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		want       string
	}{
		{
			name:       "empty header",
			authHeader: "",
			want:       "",
		},
		{
			name:       "valid bearer token",
			authHeader: "Bearer eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9.test",
			want:       "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9.test",
		},
		{
			name:       "lowercase bearer",
			authHeader: "bearer token123",
			want:       "token123",
		},
		{
			name:       "invalid format - no space",
			authHeader: "Bearertoken123",
			want:       "",
		},
		{
			name:       "invalid format - wrong scheme",
			authHeader: "Basic dXNlcjpwYXNz",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			got := extractBearerToken(req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClaimsFrom(t *testing.T) {
	t.Run("returns nil for empty context", func(t *testing.T) {
		assert.Nil(t, ClaimsFrom(context.Background()))
	})

	t.Run("returns claims from context", func(t *testing.T) {
		claims := &UserClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user_123",
			},
			Email: "doc@example.com",
		}
		ctx := WithClaims(context.Background(), claims)

		got := ClaimsFrom(ctx)
		assert.NotNil(t, got)
		assert.Equal(t, "user_123", got.Subject)
		assert.Equal(t, "doc@example.com", got.Email)
	})
}

func TestUserID(t *testing.T) {
	assert.Equal(t, "", UserID(context.Background()))

	ctx := WithClaims(context.Background(), NewTestClaims("user_abc", "doc@example.com"))
	assert.Equal(t, "user_abc", UserID(ctx))
	assert.Equal(t, "doc@example.com", Email(ctx))
	assert.True(t, IsAuthenticated(ctx))
}

func TestHasPermission(t *testing.T) {
	assert.False(t, HasPermission(context.Background(), "grade:write"))

	claims := &UserClaims{Permissions: []string{"grade:read", "grade:write"}}
	ctx := WithClaims(context.Background(), claims)
	assert.True(t, HasPermission(ctx, "grade:write"))
	assert.False(t, HasPermission(ctx, "admin"))
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	verifier := &Verifier{issuer: "https://example.test"}
	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/grades", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
