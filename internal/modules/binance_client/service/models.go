package service

import (
	"errors"
	"fmt"
	"strings"
)

// APIError — ошибка уровня Binance API: {"code":-1111,"msg":"..."}.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       int    `json:"code"`
	Msg        string `json:"msg"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("binance error: code=%d msg=%s (http %d)", e.Code, e.Msg, e.HTTPStatus)
}

// -1111 PRECISION_OVER_MAXIMUM
const codePrecisionOverMaximum = -1111

// IsPrecisionError — биржа отклонила количество из-за числа знаков
// после запятой. Единственная ошибка, которую шлюз чинит сам.
func IsPrecisionError(err error) bool {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == codePrecisionOverMaximum {
			return true
		}
		return strings.Contains(apiErr.Msg, "Precision is over the maximum")
	}
	return false
}

// ErrSymbolNotFound — у биржи нет фильтров по символу. Фатально для
// сигнала, ретраев нет.
var ErrSymbolNotFound = errors.New("symbol not found on exchange")

// PlacementFailedError — вход не размещён после всех попыток
// (или отклонён по причине, которую шлюз не чинит).
type PlacementFailedError struct {
	Symbol   string
	LastQty  float64
	Attempts int
	Last     error
}

func (e PlacementFailedError) Error() string {
	return fmt.Sprintf("failed to place order for %s after %d attempts (last qty %v): %v",
		e.Symbol, e.Attempts, e.LastQty, e.Last)
}

func (e PlacementFailedError) Unwrap() error { return e.Last }

type orderResponse struct {
	OrderID     int64  `json:"orderId"`
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	OrigQty     string `json:"origQty"`
	ExecutedQty string `json:"executedQty"`
	AvgPrice    string `json:"avgPrice"`
	StopPrice   string `json:"stopPrice"`
	ReduceOnly  bool   `json:"reduceOnly"`
}

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Status  string `json:"status"`
		Filters []struct {
			FilterType string `json:"filterType"`
			StepSize   string `json:"stepSize"`
			MinQty     string `json:"minQty"`
		} `json:"filters"`
	} `json:"symbols"`
}

type leverageResponse struct {
	Symbol   string `json:"symbol"`
	Leverage int    `json:"leverage"`
}
