// Package khalti は Khalti ePayment API を payment.Gateway として提供する
package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/config"
	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/payment"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

// Khalti の金額単位はパイサ（1ルピー = 100パイサ）
const paisaPerUnit = 100

// Khalti の照会ステータス
const (
	statusCompleted = "Completed"
	statusPending   = "Pending"
	statusInitiated = "Initiated"
)

type initiateRequest struct {
	ReturnURL         string `json:"return_url"`
	WebsiteURL        string `json:"website_url"`
	Amount            int    `json:"amount"`
	PurchaseOrderID   string `json:"purchase_order_id"`
	PurchaseOrderName string `json:"purchase_order_name"`
}

type initiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
}

type lookupRequest struct {
	Pidx string `json:"pidx"`
}

type lookupResponse struct {
	Pidx          string `json:"pidx"`
	TotalAmount   int    `json:"total_amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// Client は Khalti API のクライアント
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	returnURL  string
	websiteURL string
}

// NewClient は設定から Client を作成する
func NewClient(cfg *config.GatewayConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		returnURL:  cfg.ReturnURL,
		websiteURL: cfg.WebsiteURL,
	}
}

// Initiate は決済を開始し、pidx と支払いページのURLを返す
func (c *Client) Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.InitiateResult, error) {
	body := initiateRequest{
		ReturnURL:         c.returnURL,
		WebsiteURL:        c.websiteURL,
		Amount:            req.Amount * paisaPerUnit,
		PurchaseOrderID:   req.OrderID,
		PurchaseOrderName: req.OrderName,
	}
	if body.PurchaseOrderName == "" {
		body.PurchaseOrderName = "order_" + req.OrderID
	}

	var resp initiateResponse
	if err := c.post(ctx, "/epayment/initiate/", body, &resp); err != nil {
		return nil, err
	}
	if resp.Pidx == "" {
		return nil, fmt.Errorf("%w: pidx が空です", payment.ErrGateway)
	}
	return &payment.InitiateResult{Reference: resp.Pidx, RedirectURL: resp.PaymentURL}, nil
}

// Lookup は pidx の決済状態を照会する
func (c *Client) Lookup(ctx context.Context, reference string) (*payment.LookupResult, error) {
	var resp lookupResponse
	if err := c.post(ctx, "/epayment/lookup/", lookupRequest{Pidx: reference}, &resp); err != nil {
		return nil, err
	}
	return &payment.LookupResult{
		Reference:     reference,
		Status:        mapStatus(resp.Status),
		Amount:        toUnits(reference, resp.TotalAmount),
		TransactionID: resp.TransactionID,
	}, nil
}

// toUnits はパイサをルピーに直す
// 端数は切り上げる。切り捨てると予約金額と一致して見え、過払いの警告が出なくなる
func toUnits(reference string, paisa int) int {
	units, rest := paisa/paisaPerUnit, paisa%paisaPerUnit
	if rest == 0 {
		return units
	}
	logger.Named("khalti").Warn("決済金額にルピー未満の端数があります",
		logger.PaymentReference(reference),
		zap.Int("total_amount_paisa", paisa),
	)
	return units + 1
}

// mapStatus は Khalti のステータスを決済結果に変換する
// Completed 以外の確定ステータス（Expired, User canceled, Refunded など）は失敗として扱う
func mapStatus(status string) payment.ExternalStatus {
	switch status {
	case statusCompleted:
		return payment.ExternalSuccess
	case statusPending, statusInitiated:
		return payment.ExternalPending
	default:
		return payment.ExternalFailed
	}
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("リクエストのエンコードに失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", payment.ErrGateway, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: レスポンス読み込みに失敗: %v", payment.ErrGateway, err)
	}
	logger.Named("khalti").Debug("API 呼び出し",
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s が %d を返しました: %s", payment.ErrGateway, path, resp.StatusCode, truncate(data, 256))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: レスポンスの解析に失敗: %v", payment.ErrGateway, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

var _ payment.Gateway = (*Client)(nil)
