package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api"
	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

// CreateBookingRequest の座席は seat_ids か seat_labels のどちらかで指定する
type CreateBookingRequest struct {
	SeatIDs       []string `json:"seat_ids" validate:"omitempty,dive,required" example:"seat-A1,seat-A2"`
	SeatLabels    []string `json:"seat_labels" validate:"omitempty,dive,required" example:"C5,C6"`
	PaymentMethod string   `json:"payment_method" example:"khalti"`
}

type CreateBookingResponse struct {
	Booking    BookingResponse `json:"booking"`
	PaymentURL string          `json:"payment_url,omitempty"`
}

// Create godoc
// @Summary 予約を作成
// @Description 座席を確保して予約を作成します。外部決済の場合は決済URLを返します
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "公演ID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} CreateBookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "座席が既に予約済み"
// @Failure 502 {object} api.ErrorResponse "決済ゲートウェイのエラー"
// @Router /shows/{id}/bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if len(req.SeatIDs) == 0 && len(req.SeatLabels) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "seat_ids または seat_labels は必須です")
	}
	out, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		UserID:        actor.UserID,
		ShowID:        c.Param("id"),
		SeatIDs:       req.SeatIDs,
		SeatLabels:    req.SeatLabels,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, CreateBookingResponse{
		Booking:    toBookingResponse(out.Booking),
		PaymentURL: out.PaymentURL,
	})
}

// GetByID godoc
// @Summary 予約を取得
// @Description 座席つきで予約を取得します（本人または管理者のみ）
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetTicket godoc
// @Summary チケットを取得
// @Description 確定済み予約のチケット情報を取得します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ticket.Ticket
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "未確定"
// @Router /bookings/{id}/ticket [get]
func (h *BookingHandler) GetTicket(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	t, err := h.service.GetTicket(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

// ListMine godoc
// @Summary 自分の予約一覧を取得
// @Description 新しい順に返します
// @Tags bookings
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /users/me/bookings [get]
func (h *BookingHandler) ListMine(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	bookings, err := h.service.ListUserBookings(c.Request().Context(), actor.UserID, limit, offset)
	if err != nil {
		return api.ToHTTPError(err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ListPayments(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	payments, err := h.service.ListPayments(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return api.ToHTTPError(err)
	}
	resp := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}

// Confirm godoc
// @Summary 予約を確定
// @Description 決済ゲートウェイに支払い状況を照会し、完了していれば確定します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Failure 502 {object} api.ErrorResponse
// @Router /bookings/{id}/confirm [patch]
func (h *BookingHandler) Confirm(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	b, err := h.service.ConfirmBooking(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、座席を解放します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	b, err := h.service.CancelBooking(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
