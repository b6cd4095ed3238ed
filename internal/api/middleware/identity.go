package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
)

const (
	// HeaderUserID は上流ゲートウェイが付与するユーザーID
	HeaderUserID = "X-User-ID"
	// HeaderUserRole は上流ゲートウェイが付与するロール
	HeaderUserRole = "X-User-Role"

	actorKey = "actor"
)

var errMissingIdentity = echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")

// Claims はアクセストークンのクレーム
// sub がユーザーID、role がロール
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity は操作者を特定してコンテキストに格納するミドルウェア
// secret が設定されていれば HS256 の Bearer トークンを検証し、
// 空の場合は上流で認証済みとして X-User-ID / X-User-Role ヘッダーを信頼する
func Identity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var (
				actor application.Actor
				err   error
			)
			if secret != "" {
				actor, err = actorFromToken(c.Request(), []byte(secret))
			} else {
				actor, err = actorFromHeaders(c.Request())
			}
			if err != nil {
				return err
			}
			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

// RequireAdmin は管理者以外を拒否する。Identity の後に使う
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return errMissingIdentity
			}
			if !actor.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "管理者権限が必要です")
			}
			return next(c)
		}
	}
}

// ActorFrom はコンテキストから操作者を取り出す
func ActorFrom(c echo.Context) (application.Actor, bool) {
	actor, ok := c.Get(actorKey).(application.Actor)
	return actor, ok
}

func actorFromHeaders(r *http.Request) (application.Actor, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return application.Actor{}, errMissingIdentity
	}
	return application.Actor{
		UserID: userID,
		Role:   strings.TrimSpace(r.Header.Get(HeaderUserRole)),
	}, nil
}

func actorFromToken(r *http.Request, secret []byte) (application.Actor, error) {
	raw, ok := strings.CutPrefix(r.Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok || raw == "" {
		return application.Actor{}, errMissingIdentity
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		msg := "トークンが無効です"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "トークンの有効期限が切れています"
		}
		return application.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(err)
	}
	if claims.Subject == "" {
		return application.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "トークンにユーザーIDがありません")
	}
	return application.Actor{UserID: claims.Subject, Role: claims.Role}, nil
}
