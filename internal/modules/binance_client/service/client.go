package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"

	"github.com/bytedance/sonic"
)

// Client — подписанный REST-клиент Binance USDⓈ-M futures.
// Один на процесс, безопасен для конкурентных вызовов воркеров.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	apiSecret string

	mu      sync.RWMutex
	filters map[string]models.SymbolFilter // кэш LOT_SIZE по символу
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		baseURL:   cfg.Binance.BaseURL,
		apiKey:    cfg.Binance.APIKey,
		apiSecret: cfg.Binance.APISecret,
		filters:   make(map[string]models.SymbolFilter),
	}
}

func (c *Client) sign(query string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// signedRequest подписывает запрос HMAC-SHA256 по query-строке
// (timestamp обязателен, подпись последним параметром).
func (c *Client) signedRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")

	query := params.Encode()
	query += "&signature=" + c.sign(query)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		apiErr := APIError{HTTPStatus: resp.StatusCode}
		if err := sonic.Unmarshal(rb, &apiErr); err != nil {
			return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(rb))
		}
		return nil, apiErr
	}
	return rb, nil
}

func (c *Client) publicRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(rb))
	}
	return rb, nil
}

// formatQty — количество без экспоненты и без лишних нулей,
// иначе биржа считает знаки после запятой по строке.
func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
