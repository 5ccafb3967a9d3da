// Package catalog 保存可交易品种的静态参考数据。
package catalog

import (
	"fmt"
	"math"
	"strings"
)

// Instrument 描述一个可交易品种及其最新成交价。
type Instrument struct {
	Symbol          string  `json:"symbol"`
	Exchange        string  `json:"exchange"`
	InstrumentType  string  `json:"instrumentType"`
	LastTradedPrice float64 `json:"lastTradedPrice"`
}

// Catalog 启动后只读，读操作无需加锁。
type Catalog struct {
	items []Instrument
	index map[string]int
}

// Defaults 返回默认品种列表。
func Defaults() []Instrument {
	return []Instrument{
		{Symbol: "AAPL", Exchange: "NASDAQ", InstrumentType: "STOCK", LastTradedPrice: 175.50},
		{Symbol: "GOOGL", Exchange: "NASDAQ", InstrumentType: "STOCK", LastTradedPrice: 142.30},
		{Symbol: "MSFT", Exchange: "NASDAQ", InstrumentType: "STOCK", LastTradedPrice: 378.85},
		{Symbol: "TSLA", Exchange: "NASDAQ", InstrumentType: "STOCK", LastTradedPrice: 248.42},
		{Symbol: "BTC-USD", Exchange: "CRYPTO", InstrumentType: "CRYPTO", LastTradedPrice: 43250.00},
	}
}

// New 校验并构建 Catalog；symbol 统一转为大写。
func New(items []Instrument) (*Catalog, error) {
	c := &Catalog{
		items: make([]Instrument, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		it.Symbol = strings.ToUpper(strings.TrimSpace(it.Symbol))
		if it.Symbol == "" {
			return nil, fmt.Errorf("instrument symbol is required")
		}
		if _, dup := c.index[it.Symbol]; dup {
			return nil, fmt.Errorf("duplicate instrument %s", it.Symbol)
		}
		if !(it.LastTradedPrice > 0) || math.IsInf(it.LastTradedPrice, 0) {
			return nil, fmt.Errorf("instrument %s lastTradedPrice must be a finite number > 0", it.Symbol)
		}
		c.index[it.Symbol] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// NewDefault 使用默认品种构建 Catalog。
func NewDefault() *Catalog {
	c, err := New(Defaults())
	if err != nil {
		panic(err)
	}
	return c
}

// List 按初始化顺序返回全部品种（拷贝）。
func (c *Catalog) List() []Instrument {
	res := make([]Instrument, len(c.items))
	copy(res, c.items)
	return res
}

// Get 按 symbol 查询品种。
func (c *Catalog) Get(symbol string) (Instrument, bool) {
	i, ok := c.index[symbol]
	if !ok {
		return Instrument{}, false
	}
	return c.items[i], true
}

// LastPrice 返回品种最新成交价，不存在时第二个返回值为 false。
func (c *Catalog) LastPrice(symbol string) (float64, bool) {
	it, ok := c.Get(symbol)
	if !ok {
		return 0, false
	}
	return it.LastTradedPrice, true
}

// Len 返回品种数量。
func (c *Catalog) Len() int {
	return len(c.items)
}
