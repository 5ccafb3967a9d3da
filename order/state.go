package order

import "time"

// Status represents order lifecycle.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusPlaced    Status = "PLACED"
	StatusExecuted  Status = "EXECUTED"
	StatusCancelled Status = "CANCELLED"
)

// Side 买卖方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Style 订单类型（市价/限价）。
type Style string

const (
	StyleMarket Style = "MARKET"
	StyleLimit  Style = "LIMIT"
)

// Order holds a submitted order. Price is set only for LIMIT orders.
type Order struct {
	ID        string    `json:"orderId"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"orderType"`
	Style     Style     `json:"orderStyle"`
	Quantity  float64   `json:"quantity"`
	Price     *float64  `json:"price,omitempty"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// LimitPrice 返回限价，市价单返回 0。
func (o Order) LimitPrice() float64 {
	if o.Price == nil {
		return 0
	}
	return *o.Price
}

// Clone 深拷贝，避免调用方通过 Price 指针修改存储中的订单。
func (o Order) Clone() Order {
	if o.Price != nil {
		p := *o.Price
		o.Price = &p
	}
	return o
}

// Trade 一笔成交，创建后不可变。
type Trade struct {
	ID        string    `json:"tradeId"`
	OrderID   string    `json:"orderId"`
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Side      Side      `json:"side"`
	Timestamp time.Time `json:"timestamp"`
}

// Notional 成交金额。
func (t Trade) Notional() float64 {
	return t.Quantity * t.Price
}
