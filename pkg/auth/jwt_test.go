package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "riskwatch-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateToken("analyst-7", []string{RoleAnalyst})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "analyst-7", claims.Subject)
	assert.Equal(t, "riskwatch-test", claims.Issuer)
	assert.Equal(t, []string{RoleAnalyst}, claims.Roles)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestJWTService(t)

	t.Run("expired", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "riskwatch-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(svc.config.Secret))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "another-secret", Issuer: "riskwatch-test"})
		require.NoError(t, err)
		token, err := other.GenerateToken("x", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "elsewhere"})
		require.NoError(t, err)
		token, err := other.GenerateToken("x", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestNewJWTService_RequiresKey(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)

	_, err = NewJWTService(JWTConfig{PublicKeyPEM: "garbage"})
	assert.Error(t, err)
}

func TestHasAnyRole(t *testing.T) {
	c := Claims{Roles: []string{RoleAuditor}}

	assert.True(t, c.HasRole(RoleAuditor))
	assert.False(t, c.HasAnyRole(AssessRoles...))
	assert.True(t, c.HasAnyRole(ReadRoles...))
	assert.True(t, c.HasAnyRole())
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithClaims(context.Background(), &Claims{Roles: []string{RoleAdmin}})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.True(t, claims.HasRole(RoleAdmin))
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	interceptor := UnaryAuthInterceptor(svc,
		map[string][]string{"/risk.Service/Assess": AssessRoles},
		"/grpc.health.v1.Health/",
	)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		_, ok := ClaimsFromContext(ctx)
		return ok, nil
	}
	call := func(ctx context.Context, method string) (interface{}, error) {
		return interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	}
	withToken := func(roles ...string) context.Context {
		token, err := svc.GenerateToken("caller", roles)
		require.NoError(t, err)
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	}

	resp, err := call(context.Background(), "/grpc.health.v1.Health/Check")
	require.NoError(t, err)
	assert.Equal(t, false, resp)

	_, err = call(context.Background(), "/risk.Service/Assess")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = call(withToken(RoleAuditor), "/risk.Service/Assess")
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	resp, err = call(withToken(RoleAnalyst), "/risk.Service/Assess")
	require.NoError(t, err)
	assert.Equal(t, true, resp)

	resp, err = call(withToken(RoleAuditor), "/risk.Service/History")
	require.NoError(t, err)
	assert.Equal(t, true, resp)
}

func TestHTTPMiddleware(t *testing.T) {
	svc := newTestJWTService(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := HTTPMiddleware(svc)(RequireRoles(ok, AssessRoles...))

	serve := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	admin, err := svc.GenerateToken("a", []string{RoleAdmin})
	require.NoError(t, err)
	auditor, err := svc.GenerateToken("b", []string{RoleAuditor})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(""))
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer nope"))
	assert.Equal(t, http.StatusForbidden, serve("Bearer "+auditor))
	assert.Equal(t, http.StatusNoContent, serve("bearer "+admin))
}
