package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-system-go/catalog"
	"trading-system-go/event"
	"trading-system-go/infrastructure/monitor"
	"trading-system-go/internal/engine"
	"trading-system-go/order"
	"trading-system-go/sim"
)

type fixture struct {
	srv     *httptest.Server
	engine  *engine.TradingEngine
	monitor *monitor.Monitor
	hub     *Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pub := event.NewPublisher()
	mon := monitor.New(monitor.DefaultConfig())
	eng, err := engine.New(engine.Components{
		Catalog:   catalog.NewDefault(),
		Clock:     sim.FixedClock(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)),
		IDs:       &order.SequenceGenerator{Prefix: "o"},
		Monitor:   mon,
		Publisher: pub,
	})
	require.NoError(t, err)

	hub := NewHub(pub, 8, nil, mon)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Stop() })

	srv := httptest.NewServer(NewServer(eng, Options{Monitor: mon, Hub: hub}).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, engine: eng, monitor: mon, hub: hub}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestListInstruments(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/api/v1/instruments", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 5)
	assert.Equal(t, "AAPL", list[0]["symbol"])
	assert.Equal(t, "NASDAQ", list[0]["exchange"])
	assert.Equal(t, "STOCK", list[0]["instrumentType"])
	assert.Equal(t, 175.5, list[0]["lastTradedPrice"])

	resp, _ = f.do(t, http.MethodGet, "/api/v1/instruments/aapl", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = f.do(t, http.MethodGet, "/api/v1/instruments/NOPE", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Instrument NOPE not found", errorOf(t, body))
}

func TestPlaceOrderFlow(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/v1/orders",
		`{"orderType":"buy","orderStyle":"market","symbol":"aapl","quantity":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var placed map[string]any
	require.NoError(t, json.Unmarshal(body, &placed))
	assert.Equal(t, "o-1", placed["orderId"])
	assert.Equal(t, "AAPL", placed["symbol"])
	assert.Equal(t, "BUY", placed["orderType"])
	assert.Equal(t, "MARKET", placed["orderStyle"])
	assert.Equal(t, "EXECUTED", placed["status"])
	assert.Equal(t, "2024-01-02T15:04:05Z", placed["timestamp"])
	assert.NotContains(t, placed, "price")

	resp, body = f.do(t, http.MethodGet, "/api/v1/orders/o-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got order.Order
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, order.StatusExecuted, got.Status)

	resp, body = f.do(t, http.MethodGet, "/api/v1/trades", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trades []map[string]any
	require.NoError(t, json.Unmarshal(body, &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "o-1", trades[0]["orderId"])
	assert.Equal(t, "BUY", trades[0]["side"])
	assert.Equal(t, 175.5, trades[0]["price"])
	assert.Contains(t, trades[0], "tradeId")

	resp, body = f.do(t, http.MethodGet, "/api/v1/portfolio", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var holdings []map[string]any
	require.NoError(t, json.Unmarshal(body, &holdings))
	require.Len(t, holdings, 1)
	assert.Equal(t, 10.0, holdings[0]["quantity"])
	assert.Equal(t, 175.5, holdings[0]["averagePrice"])
	assert.Equal(t, 1755.0, holdings[0]["currentValue"])

	resp, body = f.do(t, http.MethodGet, "/api/v1/orders", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []order.Order
	require.NoError(t, json.Unmarshal(body, &orders))
	assert.Len(t, orders, 1)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	testCases := []struct {
		name string
		body string
		msg  string
	}{
		{"缺少方向", `{"orderStyle":"MARKET","symbol":"AAPL","quantity":1}`, "orderType is required"},
		{"缺少类型", `{"orderType":"BUY","symbol":"AAPL","quantity":1}`, "orderStyle is required"},
		{"缺少品种", `{"orderType":"BUY","orderStyle":"MARKET","quantity":1}`, "symbol is required"},
		{"缺少数量", `{"orderType":"BUY","orderStyle":"MARKET","symbol":"AAPL"}`, "quantity is required"},
		{"未知品种", `{"orderType":"BUY","orderStyle":"MARKET","symbol":"XYZ","quantity":1}`, "Instrument XYZ not found"},
		{"限价缺价格", `{"orderType":"BUY","orderStyle":"LIMIT","symbol":"AAPL","quantity":1}`, "price is required for LIMIT orders"},
		{"限价为零", `{"orderType":"BUY","orderStyle":"LIMIT","symbol":"AAPL","quantity":1,"price":0}`, "price must be greater than 0"},
		{"非法JSON", `{"orderType":`, "malformed request body"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/api/v1/orders", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.msg, errorOf(t, body))
		})
	}
	assert.Empty(t, f.engine.ListOrders())
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodPost, "/api/v1/orders",
		`{"orderType":"BUY","orderStyle":"LIMIT","symbol":"AAPL","quantity":10,"price":170.0}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var placed order.Order
	require.NoError(t, json.Unmarshal(body, &placed))
	assert.Equal(t, order.StatusPlaced, placed.Status)
	assert.Equal(t, 170.0, placed.LimitPrice())

	resp, body = f.do(t, http.MethodDelete, "/api/v1/orders/"+placed.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled order.Order
	require.NoError(t, json.Unmarshal(body, &cancelled))
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	resp, body = f.do(t, http.MethodDelete, "/api/v1/orders/"+placed.ID, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorOf(t, body), "cannot cancel order with status CANCELLED")

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body = f.do(t, http.MethodGet, "/api/v1/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, errorOf(t, body), "not found")
}

func TestEmptyListsAreArrays(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/v1/orders", "/api/v1/trades", "/api/v1/portfolio"} {
		resp, body := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "[]", strings.TrimSpace(string(body)), path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	f.do(t, http.MethodGet, "/api/v1/orders/x", "")

	count, err := testutil.GatherAndCount(f.monitor.Registry(), "trader_sim_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	resp, _ = f.do(t, http.MethodPut, "/api/v1/orders", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&order.ValidationError{Field: "symbol", Reason: "x"}))
	assert.Equal(t, http.StatusNotFound, statusFor(order.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(order.ErrInvalidState))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestStreamDeliversEvents(t *testing.T) {
	f := newFixture(t)
	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = f.engine.PlaceOrder(order.Request{OrderType: "BUY", OrderStyle: "MARKET", Symbol: "MSFT", Quantity: 1})
	require.NoError(t, err)

	var types []event.Type
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(types) < 3 {
		var ev event.Event
		require.NoError(t, conn.ReadJSON(&ev))
		types = append(types, ev.Type)
	}
	assert.Equal(t, []event.Type{event.OrderPlaced, event.TradeExecuted, event.OrderExecuted}, types)

	require.NoError(t, f.hub.Stop())
	assert.Equal(t, 0, f.hub.Clients())
	assert.Error(t, f.hub.Health())
}
