package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/rajanshah23/Theatre-Booking-System/internal/api/router"
	"github.com/rajanshah23/Theatre-Booking-System/internal/application"
	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/show"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/khalti"
	"github.com/rajanshah23/Theatre-Booking-System/internal/infrastructure/memory"
)

const seatPrice = 500

// TestServer はインメモリストアと偽の Khalti で組み立てたE2E用サーバー
type TestServer struct {
	Echo   *echo.Echo
	Store  *memory.Store
	Khalti *FakeKhalti
}

// NewTestServer はテストごとに独立したサーバーを作成する
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	fake := NewFakeKhalti()
	t.Cleanup(fake.Close)

	store := memory.NewStore()
	gateway := khalti.NewClient(&config.GatewayConfig{
		BaseURL:    fake.URL(),
		SecretKey:  "test-secret",
		ReturnURL:  "http://localhost:8080/api/v1/payments/khalti/callback",
		WebsiteURL: "http://localhost:8080",
		Timeout:    5 * time.Second,
	})

	bookingService := application.NewBookingService(
		store, store.Bookings(), store.Seats(), store.Shows(), store.Payments(), gateway,
	)
	seatService := application.NewSeatService(store.Seats(), store.Shows(), nil, 0, 10)

	e := router.New(router.Deps{
		BookingService: bookingService,
		PaymentService: bookingService,
		SeatService:    seatService,
	})
	return &TestServer{Echo: e, Store: store, Khalti: fake}
}

// CreateShow は公演を作成し、管理者APIで座席を生成して座席IDを返す
func (s *TestServer) CreateShow(t *testing.T, title string, totalSeats int) (string, []string) {
	t.Helper()
	sh := show.NewShow(title, time.Now().Add(7*24*time.Hour), totalSeats, seatPrice)
	require.NoError(t, s.Store.Shows().Create(context.Background(), sh))

	rec := s.Request(http.MethodPost, fmt.Sprintf("/api/v1/shows/%s/seats/seed", sh.ID), nil, "admin-1", "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var seats []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
	require.Len(t, seats, totalSeats)
	ids := make([]string, len(seats))
	for i, st := range seats {
		ids[i] = st["id"].(string)
	}
	return sh.ID, ids
}

// Request はリクエストを送信する。userID が空なら認証ヘッダーを付けない
func (s *TestServer) Request(method, path string, body interface{}, userID, role string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// Book は座席を予約してレスポンスを返す
func (s *TestServer) Book(t *testing.T, showID, userID, method string, seatIDs ...string) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]interface{}{"seat_ids": seatIDs}
	if method != "" {
		body["payment_method"] = method
	}
	return s.Request(http.MethodPost, fmt.Sprintf("/api/v1/shows/%s/bookings", showID), body, userID, "")
}

// AvailableCount は空席数を返す
func (s *TestServer) AvailableCount(t *testing.T, showID string) int {
	t.Helper()
	rec := s.Request(http.MethodGet, fmt.Sprintf("/api/v1/shows/%s/seats/available/count", showID), nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return int(resp["count"].(float64))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

type fakePayment struct {
	amount int
	status string
}

// FakeKhalti は Khalti ePayment API の initiate と lookup を模倣する
type FakeKhalti struct {
	server *httptest.Server

	mu       sync.Mutex
	seq      int
	payments map[string]*fakePayment
}

func NewFakeKhalti() *FakeKhalti {
	f := &FakeKhalti{payments: make(map[string]*fakePayment)}
	mux := http.NewServeMux()
	mux.HandleFunc("/epayment/initiate/", f.initiate)
	mux.HandleFunc("/epayment/lookup/", f.lookup)
	f.server = httptest.NewServer(mux)
	return f
}

func (f *FakeKhalti) URL() string { return f.server.URL }
func (f *FakeKhalti) Close()      { f.server.Close() }

// SetStatus は利用者が支払いページで操作した結果を再現する
func (f *FakeKhalti) SetStatus(pidx, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[pidx]; ok {
		p.status = status
	}
}

func (f *FakeKhalti) initiate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount          int    `json:"amount"`
		PurchaseOrderID string `json:"purchase_order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || r.Header.Get("Authorization") != "Key test-secret" {
		http.Error(w, `{"detail":"invalid"}`, http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.seq++
	pidx := fmt.Sprintf("pidx-%d", f.seq)
	f.payments[pidx] = &fakePayment{amount: req.Amount, status: "Initiated"}
	f.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"pidx":        pidx,
		"payment_url": "https://test-pay.khalti.com/?pidx=" + pidx,
		"expires_at":  time.Now().Add(time.Hour).Format(time.RFC3339),
	})
}

func (f *FakeKhalti) lookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pidx string `json:"pidx"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid"}`, http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	p, ok := f.payments[req.Pidx]
	var resp map[string]interface{}
	if ok {
		resp = map[string]interface{}{
			"pidx":           req.Pidx,
			"total_amount":   p.amount,
			"status":         p.status,
			"transaction_id": "txn-" + req.Pidx,
		}
	}
	f.mu.Unlock()
	if !ok {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
