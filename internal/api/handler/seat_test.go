package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api/middleware"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/seat"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
)

func testLayout(t *testing.T, total int) []*seat.Seat {
	t.Helper()
	seats, err := seat.NewLayout("show-1", total, seat.DefaultSeatsPerRow)
	require.NoError(t, err)
	return seats
}

func TestSeatHandler_ListAvailable(t *testing.T) {
	t.Run("空席を返す", func(t *testing.T) {
		mockService := new(MockSeatService)
		mockService.On("ListAvailableSeats", mock.Anything, "show-1").Return(testLayout(t, 3), nil)

		rec := serve(requestSpec{
			method: http.MethodGet, route: "/shows/:id/seats/available", target: "/shows/show-1/seats/available",
			userID: "user-123",
		}, NewSeatHandler(mockService).ListAvailable)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp []SeatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 3)
		assert.Equal(t, "A1", resp[0].Label)
		assert.False(t, resp[0].Occupied)
	})

	t.Run("公演が存在しない", func(t *testing.T) {
		mockService := new(MockSeatService)
		mockService.On("ListAvailableSeats", mock.Anything, "missing").Return(nil, show.ErrShowNotFound)

		rec := serve(requestSpec{
			method: http.MethodGet, route: "/shows/:id/seats/available", target: "/shows/missing/seats/available",
			userID: "user-123",
		}, NewSeatHandler(mockService).ListAvailable)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSeatHandler_ListAll(t *testing.T) {
	t.Run("予約済みを含む座席表を返す", func(t *testing.T) {
		seats := testLayout(t, 3)
		seats[0].Occupy("booking-1")
		mockService := new(MockSeatService)
		mockService.On("ListSeats", mock.Anything, "show-1").Return(seats, nil)

		rec := serve(requestSpec{
			method: http.MethodGet, route: "/shows/:id/seats", target: "/shows/show-1/seats",
		}, NewSeatHandler(mockService).ListAll)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp SeatMapResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.Available)
		require.Len(t, resp.Seats, 3)
		assert.Equal(t, "booked", resp.Seats[0].Status)
		assert.Equal(t, "available", resp.Seats[1].Status)
	})

	t.Run("公演が存在しない", func(t *testing.T) {
		mockService := new(MockSeatService)
		mockService.On("ListSeats", mock.Anything, "missing").Return(nil, show.ErrShowNotFound)

		rec := serve(requestSpec{
			method: http.MethodGet, route: "/shows/:id/seats", target: "/shows/missing/seats",
		}, NewSeatHandler(mockService).ListAll)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSeatHandler_CountAvailable(t *testing.T) {
	mockService := new(MockSeatService)
	mockService.On("CountAvailableSeats", mock.Anything, "show-1").Return(42, nil)

	rec := serve(requestSpec{
		method: http.MethodGet, route: "/shows/:id/seats/available/count", target: "/shows/show-1/seats/available/count",
		userID: "user-123",
	}, NewSeatHandler(mockService).CountAvailable)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp CountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CountResponse{ShowID: "show-1", Count: 42}, resp)
}

func TestSeatHandler_Seed(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		err        error
		wantStatus int
	}{
		{"管理者は座席を生成できる", "admin", nil, http.StatusCreated},
		{"生成済みは409", "admin", seat.ErrAlreadySeeded, http.StatusConflict},
		{"行ラベルの上限超過は400", "admin", seat.ErrTooManySeats, http.StatusBadRequest},
		{"一般ユーザーは403", "user", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockSeatService)
			if tt.err != nil {
				mockService.On("SeedSeats", mock.Anything, "show-1").Return(nil, tt.err)
			} else {
				mockService.On("SeedSeats", mock.Anything, "show-1").Return(testLayout(t, 12), nil).Maybe()
			}
			h := NewSeatHandler(mockService).Seed

			rec := serve(requestSpec{
				method: http.MethodPost, route: "/shows/:id/seats/seed", target: "/shows/show-1/seats/seed",
				userID: "user-123", role: tt.role,
			}, middleware.RequireAdmin()(h))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				var resp []SeatResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Len(t, resp, 12)
				assert.Equal(t, "B2", resp[11].Label)
			}
			if tt.role != "admin" {
				mockService.AssertNotCalled(t, "SeedSeats", mock.Anything, mock.Anything)
			}
		})
	}
}
