package inventory

import (
	"sort"
	"sync"

	"trading-system-go/order"
)

// Holding 单个品种的持仓快照。
type Holding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"averagePrice"`
	CurrentValue float64 `json:"currentValue"`
}

// dustQty 以下的剩余数量视为清仓，吸收小数数量的浮点误差。
const dustQty = 1e-9

// position 维护单个品种的仓位，读改写由自身的锁串行化。
type position struct {
	mu    sync.RWMutex
	qty   float64
	cost  float64
	value float64
}

// update 根据成交调整仓位：买入按加权平均成本，卖出只减数量。
func (p *position) update(side order.Side, qty, price, mark float64) (float64, float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch side {
	case order.SideBuy:
		totalValue := p.cost*p.qty + price*qty
		p.qty += qty
		if p.qty > 0 {
			p.cost = totalValue / p.qty
		}
	case order.SideSell:
		p.qty -= qty
		if p.qty < dustQty {
			p.qty = 0
			p.cost = 0
		}
	}
	p.value = p.qty * mark
	return p.qty, p.cost, p.value
}

func (p *position) snapshot() (float64, float64, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.qty, p.cost, p.value
}

// Ledger 组合账本：每个成交过的品种一条记录。
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*position
}

func NewLedger() *Ledger {
	return &Ledger{positions: make(map[string]*position)}
}

func (l *Ledger) entry(symbol string) *position {
	l.mu.RLock()
	p, ok := l.positions[symbol]
	l.mu.RUnlock()
	if ok {
		return p
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok = l.positions[symbol]; !ok {
		p = &position{}
		l.positions[symbol] = p
	}
	return p
}

// Apply 将成交计入账本，mark 为品种当前最新价，返回更新后的持仓。
func (l *Ledger) Apply(t order.Trade, mark float64) Holding {
	qty, cost, value := l.entry(t.Symbol).update(t.Side, t.Quantity, t.Price, mark)
	return Holding{Symbol: t.Symbol, Quantity: qty, AveragePrice: cost, CurrentValue: value}
}

// Holding 返回某品种持仓快照；未成交过的品种返回零值持仓。
func (l *Ledger) Holding(symbol string) Holding {
	l.mu.RLock()
	p, ok := l.positions[symbol]
	l.mu.RUnlock()
	if !ok {
		return Holding{Symbol: symbol}
	}
	qty, cost, value := p.snapshot()
	return Holding{Symbol: symbol, Quantity: qty, AveragePrice: cost, CurrentValue: value}
}

// Symbols 返回账本中的全部品种（含零仓位），按字母序。
func (l *Ledger) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		res = append(res, sym)
	}
	sort.Strings(res)
	return res
}
