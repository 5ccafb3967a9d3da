// Package store 保存进程生命周期内的订单与成交记录。
package store

import (
	"sync"

	"trading-system-go/order"
)

// Orders 维护订单（状态可变），按插入顺序列出。
type Orders struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
	seq    []string
}

func NewOrders() *Orders {
	return &Orders{orders: make(map[string]*order.Order)}
}

// Insert 登记新订单；ID 已存在时返回 false。
func (s *Orders) Insert(o order.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return false
	}
	c := o.Clone()
	s.orders[o.ID] = &c
	s.seq = append(s.seq, o.ID)
	return true
}

// Get 返回订单拷贝。
func (s *Orders) Get(id string) (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return o.Clone(), true
}

// Update 在锁内修改订单；fn 返回错误时不做任何修改。
func (s *Orders) Update(id string, fn func(o *order.Order) error) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	next := o.Clone()
	if err := fn(&next); err != nil {
		return o.Clone(), err
	}
	*o = next
	return next.Clone(), nil
}

// List 返回全部订单快照（拷贝）。
func (s *Orders) List() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]order.Order, 0, len(s.seq))
	for _, id := range s.seq {
		res = append(res, s.orders[id].Clone())
	}
	return res
}

func (s *Orders) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seq)
}

// Trades 只追加的成交记录。
type Trades struct {
	mu      sync.RWMutex
	trades  []order.Trade
	byOrder map[string]int
}

func NewTrades() *Trades {
	return &Trades{byOrder: make(map[string]int)}
}

// Append 追加成交；同一订单只允许一笔成交。
func (s *Trades) Append(t order.Trade) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byOrder[t.OrderID]; ok {
		return false
	}
	s.byOrder[t.OrderID] = len(s.trades)
	s.trades = append(s.trades, t)
	return true
}

// ForOrder 查询订单对应的成交。
func (s *Trades) ForOrder(orderID string) (order.Trade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byOrder[orderID]
	if !ok {
		return order.Trade{}, false
	}
	return s.trades[i], true
}

// List 返回全部成交快照（拷贝）。
func (s *Trades) List() []order.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]order.Trade, len(s.trades))
	copy(res, s.trades)
	return res
}

func (s *Trades) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}
