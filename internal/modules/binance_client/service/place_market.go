package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
)

const maxPlaceAttempts = 5

// PlaceMarket отправляет рыночный ордер входа. Отказ биржи по числу
// знаков количества чиним локально: срезаем один знак и пробуем снова,
// максимум maxPlaceAttempts попыток. Любая другая ошибка уходит наверх
// сразу, без ретраев.
func (c *Client) PlaceMarket(ctx context.Context, symbol string, side models.Side, qty float64) (models.Order, error) {
	return placeWithPrecisionRetry(symbol, qty, func(q float64) (models.Order, error) {
		return c.submitMarket(ctx, symbol, side, q)
	})
}

// placeWithPrecisionRetry — ограниченный цикл с убывающей точностью.
// Вынесен отдельно, чтобы протокол ретраев тестировался без сети.
func placeWithPrecisionRetry(
	symbol string,
	qty float64,
	place func(q float64) (models.Order, error),
) (models.Order, error) {
	var lastErr error

	for attempt := 1; attempt <= maxPlaceAttempts; attempt++ {
		order, err := place(qty)
		if err == nil {
			return order, nil
		}
		if !IsPrecisionError(err) {
			return models.Order{}, PlacementFailedError{Symbol: symbol, LastQty: qty, Attempts: attempt, Last: err}
		}

		lastErr = err
		logger.Info("[%s] precision rejected at qty=%v, attempt %d/%d", symbol, qty, attempt, maxPlaceAttempts)
		qty = truncateOneDecimal(qty)
	}

	return models.Order{}, PlacementFailedError{Symbol: symbol, LastQty: qty, Attempts: maxPlaceAttempts, Last: lastErr}
}

// truncateOneDecimal срезает один знак после запятой (floor, не round);
// при нуле знаков просто прижимает к целому.
func truncateOneDecimal(q float64) float64 {
	s := strconv.FormatFloat(q, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return math.Floor(q)
	}
	decimals := len(s) - dot - 1
	if decimals <= 1 {
		return math.Floor(q)
	}
	pow := math.Pow(10, float64(decimals-1))
	return math.Floor(q*pow) / pow
}

func (c *Client) submitMarket(ctx context.Context, symbol string, side models.Side, qty float64) (models.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", string(models.OrderMarket))
	params.Set("quantity", formatQty(qty))

	rb, err := c.signedRequest(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return models.Order{}, err
	}

	var resp orderResponse
	if err := sonic.Unmarshal(rb, &resp); err != nil {
		return models.Order{}, fmt.Errorf("order decode: %w; body=%s", err, string(rb))
	}

	return models.Order{
		OrderID:  resp.OrderID,
		Symbol:   resp.Symbol,
		Side:     side,
		Type:     models.OrderMarket,
		Quantity: qty,
		Status:   resp.Status,
	}, nil
}
