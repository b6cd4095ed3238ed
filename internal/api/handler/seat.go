package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api"
)

type SeatHandler struct {
	service SeatServiceInterface
}

func NewSeatHandler(s SeatServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

type CountResponse struct {
	ShowID string `json:"show_id"`
	Count  int    `json:"count"`
}

// SeatMapResponse は公演の座席表
type SeatMapResponse struct {
	ShowID    string         `json:"show_id"`
	Total     int            `json:"total"`
	Available int            `json:"available"`
	Seats     []SeatResponse `json:"seats"`
}

// ListAll は予約済みを含む全座席を状態つきで返す
func (h *SeatHandler) ListAll(c echo.Context) error {
	showID := c.Param("id")
	seats, err := h.service.ListSeats(c.Request().Context(), showID)
	if err != nil {
		return api.ToHTTPError(err)
	}
	resp := SeatMapResponse{ShowID: showID, Total: len(seats), Seats: toSeatResponses(seats)}
	for _, s := range seats {
		if s.IsAvailable() {
			resp.Available++
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *SeatHandler) ListAvailable(c echo.Context) error {
	seats, err := h.service.ListAvailableSeats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSeatResponses(seats))
}

func (h *SeatHandler) CountAvailable(c echo.Context) error {
	showID := c.Param("id")
	count, err := h.service.CountAvailableSeats(c.Request().Context(), showID)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, CountResponse{ShowID: showID, Count: count})
}

// Seed は公演の総座席数ぶんの座席を生成する（管理者のみ）
func (h *SeatHandler) Seed(c echo.Context) error {
	seats, err := h.service.SeedSeats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toSeatResponses(seats))
}
