// Package client 是交易模拟服务的 Go SDK。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trading-system-go/catalog"
	"trading-system-go/inventory"
	"trading-system-go/order"
)

// Client 访问 /api/v1 接口。
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Option 配置 Client。
type Option func(*Client)

// WithHTTPClient 注入自定义 http.Client（例如 httptest 的客户端）。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout 覆盖默认超时。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// New 创建客户端，baseURL 末尾的 / 会被去掉。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: NewDefaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultHTTPClient 提供一个带超时的 http.Client。
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// Instruments 查询全部品种。
func (c *Client) Instruments(ctx context.Context) ([]catalog.Instrument, error) {
	var out []catalog.Instrument
	return out, c.do(ctx, http.MethodGet, "/api/v1/instruments", nil, &out)
}

// PlaceOrder 下单；price 仅限价单需要。
func (c *Client) PlaceOrder(ctx context.Context, orderType, orderStyle, symbol string, quantity float64, price *float64) (order.Order, error) {
	req := order.Request{
		OrderType:  orderType,
		OrderStyle: orderStyle,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
	}
	var out order.Order
	return out, c.do(ctx, http.MethodPost, "/api/v1/orders", req, &out)
}

// PlaceMarketOrder 市价单。
func (c *Client) PlaceMarketOrder(ctx context.Context, side, symbol string, quantity float64) (order.Order, error) {
	return c.PlaceOrder(ctx, side, string(order.StyleMarket), symbol, quantity, nil)
}

// PlaceLimitOrder 限价单。
func (c *Client) PlaceLimitOrder(ctx context.Context, side, symbol string, quantity, price float64) (order.Order, error) {
	return c.PlaceOrder(ctx, side, string(order.StyleLimit), symbol, quantity, &price)
}

// GetOrderStatus 查询单个订单。
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (order.Order, error) {
	var out order.Order
	return out, c.do(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(orderID), nil, &out)
}

// Orders 查询全部订单。
func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	return out, c.do(ctx, http.MethodGet, "/api/v1/orders", nil, &out)
}

// CancelOrder 撤单。
func (c *Client) CancelOrder(ctx context.Context, orderID string) (order.Order, error) {
	var out order.Order
	return out, c.do(ctx, http.MethodDelete, "/api/v1/orders/"+url.PathEscape(orderID), nil, &out)
}

// Trades 查询全部成交。
func (c *Client) Trades(ctx context.Context) ([]order.Trade, error) {
	var out []order.Trade
	return out, c.do(ctx, http.MethodGet, "/api/v1/trades", nil, &out)
}

// Portfolio 查询持仓。
func (c *Client) Portfolio(ctx context.Context) ([]inventory.Holding, error) {
	var out []inventory.Holding
	return out, c.do(ctx, http.MethodGet, "/api/v1/portfolio", nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.HTTPClient == nil {
		return fmt.Errorf("http client not set")
	}
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
