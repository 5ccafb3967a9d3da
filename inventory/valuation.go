package inventory

// PriceSource 提供品种最新价。
type PriceSource interface {
	LastPrice(symbol string) (float64, bool)
}

// Holdings 按最新价重新计算市值，并过滤掉零仓位。
// 价格缺失的品种沿用上一次计算的市值。
func (l *Ledger) Holdings(prices PriceSource) []Holding {
	symbols := l.Symbols()
	res := make([]Holding, 0, len(symbols))
	for _, sym := range symbols {
		h := l.Holding(sym)
		if h.Quantity <= 0 {
			continue
		}
		if prices != nil {
			if mark, ok := prices.LastPrice(sym); ok {
				h.CurrentValue = h.Quantity * mark
			}
		}
		res = append(res, h)
	}
	return res
}
