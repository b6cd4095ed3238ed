package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

// newIdentityEcho は操作者をレスポンスに書き出すテスト用サーバー
func newIdentityEcho(secret string, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{Identity(secret)}, extra...)
	e.GET("/me", func(c echo.Context) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, actor.UserID+"/"+actor.Role)
	}, mws...)
	return e
}

func TestIdentity_Headers(t *testing.T) {
	e := newIdentityEcho("")

	t.Run("ヘッダーから操作者を取得する", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(HeaderUserID, "user-1")
		req.Header.Set(HeaderUserRole, "admin")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1/admin", rec.Body.String())
	})

	t.Run("ユーザーIDがなければ401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIdentity_JWT(t *testing.T) {
	e := newIdentityEcho(testSecret)
	valid := Claims{
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "有効なトークン",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid),
			wantStatus: http.StatusOK,
			wantBody:   "user-1/user",
		},
		{
			name:       "トークンなし",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "署名が異なる",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), valid),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "HS256以外は拒否",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), valid),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "期限切れ",
			header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "user-1",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				},
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "subなし",
			header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
				Role: "admin",
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			// JWT 有効時はヘッダーを信頼しない
			req.Header.Set(HeaderUserID, "spoofed")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	e := newIdentityEcho("", RequireAdmin())

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"管理者は通過", "admin", http.StatusOK},
		{"一般ユーザーは403", "user", http.StatusForbidden},
		{"ロールなしは403", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set(HeaderUserID, "user-1")
			req.Header.Set(HeaderUserRole, tt.role)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
