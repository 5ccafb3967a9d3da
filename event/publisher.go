// Package event 分发订单与成交事件给订阅者（如 websocket 推送）。
package event

import (
	"sync"
	"sync/atomic"
	"time"

	"trading-system-go/order"
)

// Type 事件类型。
type Type string

const (
	OrderPlaced    Type = "order_placed"
	OrderExecuted  Type = "order_executed"
	OrderCancelled Type = "order_cancelled"
	TradeExecuted  Type = "trade_executed"
)

// Event 一条推送事件，Order/Trade 按类型二选一。
// Seq 为引擎提交序号，同一次提交产生的事件共享同一序号。
type Event struct {
	Seq       uint64       `json:"seq"`
	Type      Type         `json:"type"`
	Order     *order.Order `json:"order,omitempty"`
	Trade     *order.Trade `json:"trade,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ForOrder 构造订单事件（拷贝订单）。
func ForOrder(t Type, o order.Order, ts time.Time) Event {
	c := o.Clone()
	return Event{Type: t, Order: &c, Timestamp: ts}
}

// ForTrade 构造成交事件。
func ForTrade(tr order.Trade, ts time.Time) Event {
	return Event{Type: TradeExecuted, Trade: &tr, Timestamp: ts}
}

// Publisher 一个轻量事件分发器，订阅者消费慢时丢弃事件而不阻塞发布方。
type Publisher struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	nextID  int
	dropped atomic.Uint64
}

func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[int]chan Event)}
}

// Subscribe 返回事件通道和取消订阅函数，取消后通道被关闭。
func (p *Publisher) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}
}

// Publish 非阻塞分发。
func (p *Publisher) Publish(e Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- e:
		default:
			p.dropped.Add(1)
		}
	}
}

// Subscribers 当前订阅数。
func (p *Publisher) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Dropped 因订阅者缓冲区满而丢弃的事件数。
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}
