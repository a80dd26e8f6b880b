package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"signal_bot/internal/models"

	"github.com/bytedance/sonic"
)

// SymbolFilter отдаёт LOT_SIZE (stepSize, minQty) по символу.
// Справочные данные меняются редко — после первого запроса отвечаем из кэша.
func (c *Client) SymbolFilter(ctx context.Context, symbol string) (models.SymbolFilter, error) {
	c.mu.RLock()
	f, ok := c.filters[symbol]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	rb, err := c.publicRequest(ctx, "/fapi/v1/exchangeInfo", params)
	if err != nil {
		return models.SymbolFilter{}, fmt.Errorf("exchange info %s: %w", symbol, err)
	}

	var payload exchangeInfoResponse
	if err := sonic.Unmarshal(rb, &payload); err != nil {
		return models.SymbolFilter{}, fmt.Errorf("exchange info decode: %w", err)
	}

	for _, s := range payload.Symbols {
		if s.Symbol != symbol {
			continue
		}
		for _, flt := range s.Filters {
			if flt.FilterType != "LOT_SIZE" {
				continue
			}
			step, err := strconv.ParseFloat(flt.StepSize, 64)
			if err != nil || step <= 0 {
				return models.SymbolFilter{}, fmt.Errorf("lot size %s: bad stepSize %q", symbol, flt.StepSize)
			}
			minQty, err := strconv.ParseFloat(flt.MinQty, 64)
			if err != nil || minQty <= 0 {
				return models.SymbolFilter{}, fmt.Errorf("lot size %s: bad minQty %q", symbol, flt.MinQty)
			}

			f = models.SymbolFilter{Symbol: symbol, StepSize: step, MinQty: minQty}
			c.mu.Lock()
			c.filters[symbol] = f
			c.mu.Unlock()
			return f, nil
		}
		return models.SymbolFilter{}, fmt.Errorf("lot size %s: filter missing: %w", symbol, ErrSymbolNotFound)
	}

	return models.SymbolFilter{}, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
}
