package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/logger"
	"marketplace/internal/usecase"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.razorpay.com"
	ordersPath     = "/v1/orders"
	// エラー時にログへ残すレスポンスの上限
	maxErrorBody = 2048
)

var ErrGatewayRejected = errors.New("razorpay rejected request")

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Razorpay Orders API のクライアント
type RazorpayGateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewRazorpayGateway(cfg RazorpayConfig, log *logger.Logger) *RazorpayGateway {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RazorpayGateway{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateTransaction(ctx context.Context, amountMinor int64, currency, receipt string) (usecase.GatewayTransaction, error) {
	body, err := json.Marshal(createOrderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt})
	if err != nil {
		return usecase.GatewayTransaction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return usecase.GatewayTransaction{}, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return usecase.GatewayTransaction{}, fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return usecase.GatewayTransaction{}, fmt.Errorf("read razorpay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		_ = json.Unmarshal(raw, &er)
		g.log.Event(ctx, zerolog.WarnLevel).
			Int("status", resp.StatusCode).
			Str("code", er.Error.Code).
			Str("receipt", receipt).
			Str("response", truncate(string(raw), maxErrorBody)).
			Msg("razorpay returned non-success status")
		return usecase.GatewayTransaction{}, fmt.Errorf("%w: status %d %s", ErrGatewayRejected, resp.StatusCode, er.Error.Description)
	}

	var out orderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return usecase.GatewayTransaction{}, fmt.Errorf("decode razorpay order: %w", err)
	}
	if out.ID == "" {
		return usecase.GatewayTransaction{}, fmt.Errorf("%w: missing order id", ErrGatewayRejected)
	}

	g.log.Event(ctx, zerolog.DebugLevel).
		Str("gateway_order_id", out.ID).
		Str("receipt", out.Receipt).
		Int64("amount", out.Amount).
		Msg("razorpay order created")

	return usecase.GatewayTransaction{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Receipt:  out.Receipt,
	}, nil
}

// 署名 = hex(HMAC-SHA256(secret, orderID + "|" + paymentID))
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := Sign(g.keySecret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign はチェックアウト完了時にゲートウェイが返す署名と同じ値を作る
func Sign(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
