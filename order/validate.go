package order

import (
	"math"
	"strings"
)

// Request 下单请求。Price 仅 LIMIT 单需要。
type Request struct {
	OrderType  string   `json:"orderType"`
	OrderStyle string   `json:"orderStyle"`
	Symbol     string   `json:"symbol"`
	Quantity   float64  `json:"quantity"`
	Price      *float64 `json:"price,omitempty"`
}

// Normalize 将 symbol/side/style 统一为大写。
func (r Request) Normalize() Request {
	r.OrderType = strings.ToUpper(strings.TrimSpace(r.OrderType))
	r.OrderStyle = strings.ToUpper(strings.TrimSpace(r.OrderStyle))
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	return r
}

// Validate 检查请求字段；exists 用于判断品种是否存在。
// 请求应先经过 Normalize。
func (r Request) Validate(exists func(symbol string) bool) error {
	if r.Symbol == "" {
		return invalid("symbol", "symbol is required")
	}
	if exists != nil && !exists(r.Symbol) {
		return invalid("symbol", "Instrument %s not found", r.Symbol)
	}
	switch Side(r.OrderType) {
	case SideBuy, SideSell:
	default:
		return invalid("orderType", "orderType must be BUY or SELL")
	}
	switch Style(r.OrderStyle) {
	case StyleMarket, StyleLimit:
	default:
		return invalid("orderStyle", "orderStyle must be MARKET or LIMIT")
	}
	if !(r.Quantity > 0) || math.IsInf(r.Quantity, 0) {
		return invalid("quantity", "quantity must be greater than 0")
	}
	if Style(r.OrderStyle) == StyleLimit {
		if r.Price == nil {
			return invalid("price", "price is required for LIMIT orders")
		}
		if !(*r.Price > 0) || math.IsInf(*r.Price, 0) {
			return invalid("price", "price must be greater than 0")
		}
	}
	return nil
}
