package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api"
)

type PaymentHandler struct {
	service PaymentServiceInterface
}

func NewPaymentHandler(s PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: s}
}

// KhaltiCallbackRequest は Khalti からの戻りリクエスト
// POST はJSONボディ、GET はリダイレクト時のクエリから pidx を読む
type KhaltiCallbackRequest struct {
	Pidx string `json:"pidx" query:"pidx" validate:"required"`
}

// KhaltiCallback godoc
// @Summary Khalti 決済コールバック
// @Description コールバックの内容は信用せず、pidx でゲートウェイに照会してから予約に反映します
// @Tags payments
// @Accept json
// @Produce json
// @Param request body KhaltiCallbackRequest false "POST の場合"
// @Param pidx query string false "GET の場合"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 502 {object} api.ErrorResponse
// @Router /payments/khalti/callback [post]
func (h *PaymentHandler) KhaltiCallback(c echo.Context) error {
	var req KhaltiCallbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.VerifyPayment(c.Request().Context(), req.Pidx)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
