package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
)

// SetLeverage выставляет плечо по символу перед входом.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage < 1 {
		leverage = 1
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	rb, err := c.signedRequest(ctx, http.MethodPost, "/fapi/v1/leverage", params)
	if err != nil {
		return fmt.Errorf("set leverage %s x%d: %w", symbol, leverage, err)
	}

	var resp leverageResponse
	if err := sonic.Unmarshal(rb, &resp); err != nil {
		return fmt.Errorf("set leverage decode: %w; body=%s", err, string(rb))
	}
	if resp.Leverage != leverage {
		return fmt.Errorf("set leverage %s: asked x%d, exchange set x%d", symbol, leverage, resp.Leverage)
	}
	return nil
}
