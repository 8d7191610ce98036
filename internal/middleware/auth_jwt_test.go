package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cartservice/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// レスポンス確認用
// =====================

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// =====================
// helper
// =====================

func mustMakeJWT(t *testing.T, secret string, claims jwt.MapClaims, signingMethod jwt.SigningMethod) string {
	t.Helper()

	token := jwt.NewWithClaims(signingMethod, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func claimsFor(sub interface{}, role string) jwt.MapClaims {
	c := jwt.MapClaims{
		"sub": sub,
		"iat": 1,
		"exp": 9999999999,
	}
	if role != "" {
		c["role"] = role
	}
	return c
}

func runRequest(t *testing.T, e *echo.Echo, method string, path string, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func newProtected(secret string, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{middleware.AuthJWT(secret)}, extra...)
	e.GET("/protected", func(c echo.Context) error {
		uid, _ := c.Get(middleware.CtxUserIDKey).(int64)
		role, _ := c.Get(middleware.CtxUserRoleKey).(string)
		return c.JSON(http.StatusOK, mwOKResponse{UserID: uid, Role: role})
	}, mws...)
	return e
}

// =====================
// AuthJWT
// =====================

func TestMiddleware_AuthJWT_Unauthorized(t *testing.T) {
	const secret = "test-secret"

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"bad scheme", "Token abc.def.ghi"},
		{"empty token", "Bearer  "},
		{"bad signature", "Bearer " + mustMakeJWT(t, "wrong-secret", claimsFor(1, "USER"), jwt.SigningMethodHS256)},
		{"wrong alg", "Bearer " + mustMakeJWT(t, secret, claimsFor(1, "USER"), jwt.SigningMethodHS512)},
		{"missing sub", "Bearer " + mustMakeJWT(t, secret, jwt.MapClaims{"exp": 9999999999}, jwt.SigningMethodHS256)},
		{"zero sub", "Bearer " + mustMakeJWT(t, secret, claimsFor(0, "USER"), jwt.SigningMethodHS256)},
		{"expired", "Bearer " + mustMakeJWT(t, secret, jwt.MapClaims{"sub": 1, "exp": 1}, jwt.SigningMethodHS256)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newProtected(secret)
			rec := runRequest(t, e, http.MethodGet, "/protected", tc.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeMWError(t, rec).Error)
		})
	}
}

// 正常：ctxに値が入る
func TestMiddleware_AuthJWT_Success_SetsContext(t *testing.T) {
	const secret = "test-secret"
	e := newProtected(secret)

	raw := mustMakeJWT(t, secret, claimsFor(123, "ADMIN"), jwt.SigningMethodHS256)
	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(123), body.UserID)
	assert.Equal(t, "ADMIN", body.Role)
}

// roleなし・subが文字列 => USER扱い
func TestMiddleware_AuthJWT_DefaultRole_StringSub(t *testing.T) {
	const secret = "test-secret"
	e := newProtected(secret)

	raw := mustMakeJWT(t, secret, claimsFor("42", ""), jwt.SigningMethodHS256)
	rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(42), body.UserID)
	assert.Equal(t, middleware.RoleUser, body.Role)
}

// =====================
// AdminRoleGuard
// =====================

func TestMiddleware_AdminRoleGuard(t *testing.T) {
	const secret = "test-secret"
	e := newProtected(secret, middleware.AdminRoleGuard())

	t.Run("user is forbidden", func(t *testing.T) {
		raw := mustMakeJWT(t, secret, claimsFor(1, "USER"), jwt.SigningMethodHS256)
		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "admin only", decodeMWError(t, rec).Error)
	})

	t.Run("admin passes", func(t *testing.T) {
		raw := mustMakeJWT(t, secret, claimsFor(1, "ADMIN"), jwt.SigningMethodHS256)
		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

// roleがctxに無い => 401
func TestMiddleware_AdminRoleGuard_NoRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, middleware.AdminRoleGuard())

	rec := runRequest(t, e, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
