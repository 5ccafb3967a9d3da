// Package sim 按最新成交价模拟订单执行：不挂单、不排队、不部分成交。
package sim

import (
	"trading-system-go/catalog"
	"trading-system-go/inventory"
	"trading-system-go/order"
)

// Executor 决定订单能否立即成交以及成交价格。
type Executor struct {
	Clock Clock
	IDs   order.IDGenerator
}

func NewExecutor(clock Clock, ids order.IDGenerator) *Executor {
	if clock == nil {
		clock = NowUTC
	}
	if ids == nil {
		ids = order.UUIDGenerator{}
	}
	return &Executor{Clock: clock, IDs: ids}
}

// Attempt 对 PLACED 订单尝试执行；第二个返回值为 false 表示未成交（不是错误）。
// holding 是调用方当前持仓的只读快照。
func (e *Executor) Attempt(o order.Order, inst catalog.Instrument, holding inventory.Holding) (order.Trade, bool) {
	px, ok := ExecutionPrice(o, inst.LastTradedPrice)
	if !ok {
		return order.Trade{}, false
	}
	// 不支持卖空
	if o.Side == order.SideSell && holding.Quantity < o.Quantity {
		return order.Trade{}, false
	}
	return order.Trade{
		ID:        e.IDs.NewID(),
		OrderID:   o.ID,
		Symbol:    o.Symbol,
		Quantity:  o.Quantity,
		Price:     px,
		Side:      o.Side,
		Timestamp: e.Clock.Now(),
	}, true
}

// ExecutionPrice 市价单按最新价成交；限价单只有可立即成交时按限价成交。
func ExecutionPrice(o order.Order, last float64) (float64, bool) {
	switch o.Style {
	case order.StyleMarket:
		return last, true
	case order.StyleLimit:
		if o.Price == nil {
			return 0, false
		}
		limit := *o.Price
		if o.Side == order.SideBuy && limit < last {
			return 0, false
		}
		if o.Side == order.SideSell && limit > last {
			return 0, false
		}
		return limit, true
	default:
		return 0, false
	}
}
