package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-system-go/catalog"
	"trading-system-go/inventory"
	"trading-system-go/order"
)

var aapl = catalog.Instrument{Symbol: "AAPL", Exchange: "NASDAQ", InstrumentType: "STOCK", LastTradedPrice: 175.50}

func limit(v float64) *float64 { return &v }

func newTestExecutor() *Executor {
	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	return NewExecutor(FixedClock(ts), &order.SequenceGenerator{Prefix: "trd"})
}

func TestAttemptMarket(t *testing.T) {
	e := newTestExecutor()

	buy := order.Order{ID: "o1", Symbol: "AAPL", Side: order.SideBuy, Style: order.StyleMarket, Quantity: 10, Status: order.StatusPlaced}
	tr, ok := e.Attempt(buy, aapl, inventory.Holding{Symbol: "AAPL"})
	require.True(t, ok)
	assert.Equal(t, "trd-1", tr.ID)
	assert.Equal(t, "o1", tr.OrderID)
	assert.Equal(t, 175.50, tr.Price)
	assert.Equal(t, 10.0, tr.Quantity)
	assert.Equal(t, order.SideBuy, tr.Side)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), tr.Timestamp)

	sell := order.Order{ID: "o2", Symbol: "AAPL", Side: order.SideSell, Style: order.StyleMarket, Quantity: 10}
	tr, ok = e.Attempt(sell, aapl, inventory.Holding{Symbol: "AAPL", Quantity: 10})
	require.True(t, ok)
	assert.Equal(t, 175.50, tr.Price)
}

func TestAttemptLimit(t *testing.T) {
	e := newTestExecutor()
	held := inventory.Holding{Symbol: "AAPL", Quantity: 100}

	testCases := []struct {
		name   string
		side   order.Side
		limit  float64
		filled bool
	}{
		{"买入限价低于现价不成交", order.SideBuy, 170, false},
		{"买入限价等于现价成交", order.SideBuy, 175.50, true},
		{"买入限价高于现价按限价成交", order.SideBuy, 180, true},
		{"卖出限价高于现价不成交", order.SideSell, 180, false},
		{"卖出限价等于现价成交", order.SideSell, 175.50, true},
		{"卖出限价低于现价按限价成交", order.SideSell, 170, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := order.Order{ID: "o", Symbol: "AAPL", Side: tc.side, Style: order.StyleLimit, Quantity: 5, Price: limit(tc.limit)}
			tr, ok := e.Attempt(o, aapl, held)
			assert.Equal(t, tc.filled, ok)
			if tc.filled {
				assert.Equal(t, tc.limit, tr.Price, "limit orders execute at the limit price")
				assert.Equal(t, 5.0, tr.Quantity)
			}
		})
	}
}

func TestAttemptSellInsufficientHolding(t *testing.T) {
	e := newTestExecutor()
	for _, style := range []order.Style{order.StyleMarket, order.StyleLimit} {
		o := order.Order{ID: "o", Symbol: "AAPL", Side: order.SideSell, Style: style, Quantity: 11, Price: limit(1)}
		_, ok := e.Attempt(o, aapl, inventory.Holding{Symbol: "AAPL", Quantity: 10})
		assert.False(t, ok, "style %s", style)

		_, ok = e.Attempt(o, aapl, inventory.Holding{Symbol: "AAPL"})
		assert.False(t, ok, "style %s with no holding", style)
	}
}

func TestExecutionPriceMissingLimit(t *testing.T) {
	_, ok := ExecutionPrice(order.Order{Style: order.StyleLimit, Side: order.SideBuy}, 100)
	assert.False(t, ok)
	_, ok = ExecutionPrice(order.Order{Style: "STOP", Side: order.SideBuy}, 100)
	assert.False(t, ok)
}

func TestNewExecutorDefaults(t *testing.T) {
	e := NewExecutor(nil, nil)
	o := order.Order{ID: "o", Symbol: "AAPL", Side: order.SideBuy, Style: order.StyleMarket, Quantity: 1}
	tr, ok := e.Attempt(o, aapl, inventory.Holding{})
	require.True(t, ok)
	assert.NotEmpty(t, tr.ID)
	assert.False(t, tr.Timestamp.IsZero())
}
