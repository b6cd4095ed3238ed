package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

// RequestLogger はアクセスログを1リクエスト1行で出力する
// ハンドラーのエラーはここで c.Error に渡し、確定したステータスを記録する
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := accessLogFields(c, time.Since(started))
			if err != nil && status >= 500 {
				fields = append(fields, zap.Error(err))
			}

			level, msg := accessLogLevel(status)
			if ce := logger.Get().Check(level, msg); ce != nil {
				ce.Write(fields...)
			}
			return nil
		}
	}
}

func accessLogLevel(status int) (zapcore.Level, string) {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel, "server error"
	case status >= 400:
		return zapcore.WarnLevel, "client error"
	default:
		return zapcore.InfoLevel, "request completed"
	}
}

func accessLogFields(c echo.Context, latency time.Duration) []zap.Field {
	req := c.Request()
	res := c.Response()

	fields := []zap.Field{
		zap.String("request_id", requestIDOf(c)),
		zap.String("method", req.Method),
		zap.String("route", c.Path()),
		zap.String("path", req.URL.Path),
		zap.Int("status", res.Status),
		zap.Int64("size", res.Size),
		zap.Duration("latency", latency),
		zap.String("remote_ip", c.RealIP()),
	}
	if req.URL.RawQuery != "" {
		fields = append(fields, zap.String("query", req.URL.RawQuery))
	}
	if ua := req.UserAgent(); ua != "" {
		fields = append(fields, zap.String("user_agent", ua))
	}
	if actor, ok := ActorFrom(c); ok {
		fields = append(fields, logger.UserID(actor.UserID), zap.String("role", actor.Role))
	}
	return fields
}

func requestIDOf(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// RequestIDMiddleware はリクエストIDを引き継ぐか新規に発行し、レスポンスヘッダーに載せる
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = generateRequestID()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

func generateRequestID() string {
	return uuid.NewString()
}
