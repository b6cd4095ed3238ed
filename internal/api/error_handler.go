package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/booking"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// statusRules はドメインエラーとHTTPステータスの対応（上から順に評価）
var statusRules = []struct {
	code int
	errs []error
}{
	{http.StatusBadRequest, []error{
		booking.ErrInvalidRequest,
		booking.ErrUserIDRequired,
		booking.ErrShowIDRequired,
		booking.ErrSeatIDsRequired,
		seat.ErrInvalidSeatCount,
		seat.ErrInvalidRowWidth,
		seat.ErrTooManySeats,
		payment.ErrUnknownMethod,
	}},
	{http.StatusNotFound, []error{
		booking.ErrBookingNotFound,
		show.ErrShowNotFound,
		seat.ErrSeatNotFound,
	}},
	{http.StatusForbidden, []error{
		booking.ErrForbidden,
	}},
	{http.StatusConflict, []error{
		booking.ErrSeatConflict,
		booking.ErrInvalidTransition,
		booking.ErrAlreadyCancelled,
		booking.ErrShowAlreadyStarted,
		booking.ErrNotConfirmed,
		booking.ErrNoPaymentReference,
		seat.ErrAlreadySeeded,
	}},
	// 価格が不正な公演は販売できない
	{http.StatusUnprocessableEntity, []error{
		show.ErrInvalidPrice,
	}},
	{http.StatusBadGateway, []error{
		payment.ErrGateway,
	}},
}

// StatusCode はエラーに対応するHTTPステータスを返す
// 対応がなければ 500
func StatusCode(err error) int {
	for _, rule := range statusRules {
		for _, target := range rule.errs {
			if errors.Is(err, target) {
				return rule.code
			}
		}
	}
	return http.StatusInternalServerError
}

// ToHTTPError はドメインエラーを echo.HTTPError に変換する
// 500 の場合は内部の詳細をクライアントに返さない
func ToHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	code := StatusCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "内部サーバーエラー"
	}
	return echo.NewHTTPError(code, message).SetInternal(err)
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := ToHTTPError(err)
	code := he.Code
	message, ok := he.Message.(string)
	if !ok {
		message = http.StatusText(code)
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// HEAD はボディを返さない
	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(code); err != nil {
			logger.Error("エラーレスポンス送信失敗", zap.Error(err))
		}
		return
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
