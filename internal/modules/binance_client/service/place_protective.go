package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"signal_bot/internal/models"

	"github.com/bytedance/sonic"
)

// ProtectiveOrders — результат постановки пары защитных ордеров.
// Ордера независимы: провал одного не отменяет попытку второго,
// каждая ошибка репортится отдельно.
type ProtectiveOrders struct {
	Stop    *models.Order
	StopErr error

	TakeProfit    *models.Order
	TakeProfitErr error
}

func (p ProtectiveOrders) Failed() bool {
	return p.StopErr != nil || p.TakeProfitErr != nil
}

// PlaceProtective ставит reduce-only STOP_MARKET (пропускается при
// stopPx == 0) и reduce-only TAKE_PROFIT_MARKET на closingSide —
// стороне, обратной входу. Инверсию считает вызывающий, один раз.
func (c *Client) PlaceProtective(
	ctx context.Context,
	symbol string,
	closingSide models.Side,
	qty float64,
	stopPx float64,
	takePx float64,
) ProtectiveOrders {
	var res ProtectiveOrders

	if stopPx > 0 {
		order, err := c.submitTrigger(ctx, symbol, closingSide, models.OrderStopMarket, qty, stopPx)
		if err != nil {
			res.StopErr = fmt.Errorf("stop loss %s @ %v: %w", symbol, stopPx, err)
		} else {
			res.Stop = &order
		}
	}

	if takePx > 0 {
		order, err := c.submitTrigger(ctx, symbol, closingSide, models.OrderTakeProfit, qty, takePx)
		if err != nil {
			res.TakeProfitErr = fmt.Errorf("take profit %s @ %v: %w", symbol, takePx, err)
		} else {
			res.TakeProfit = &order
		}
	}

	return res
}

func (c *Client) submitTrigger(
	ctx context.Context,
	symbol string,
	side models.Side,
	orderType models.OrderType,
	qty float64,
	triggerPx float64,
) (models.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", string(orderType))
	params.Set("quantity", formatQty(qty))
	params.Set("stopPrice", formatPrice(triggerPx))
	params.Set("reduceOnly", "true")

	rb, err := c.signedRequest(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return models.Order{}, err
	}

	var resp orderResponse
	if err := sonic.Unmarshal(rb, &resp); err != nil {
		return models.Order{}, fmt.Errorf("order decode: %w; body=%s", err, string(rb))
	}

	return models.Order{
		OrderID:    resp.OrderID,
		Symbol:     resp.Symbol,
		Side:       side,
		Type:       orderType,
		Quantity:   qty,
		StopPrice:  triggerPx,
		ReduceOnly: true,
		Status:     resp.Status,
	}, nil
}
