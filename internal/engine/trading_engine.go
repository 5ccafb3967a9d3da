package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"trading-system-go/catalog"
	"trading-system-go/event"
	"trading-system-go/infrastructure/logger"
	"trading-system-go/infrastructure/monitor"
	"trading-system-go/internal/store"
	"trading-system-go/inventory"
	"trading-system-go/order"
	"trading-system-go/sim"
)

// Components 引擎依赖组件，除 Catalog 外均可为空，使用默认实现
type Components struct {
	Catalog   *catalog.Catalog
	Orders    *store.Orders
	Trades    *store.Trades
	Ledger    *inventory.Ledger
	Executor  *sim.Executor
	Clock     sim.Clock
	IDs       order.IDGenerator
	Logger    *logger.Logger
	Monitor   *monitor.Monitor
	Publisher *event.Publisher
}

// TradingEngine 单一组合的交易门面：下单、撤单、查询订单/成交/持仓。
//
// 写操作（下单、撤单）在同一把锁内完成订单、成交与持仓的全部更新，
// 读操作持读锁，因此任何读者都看不到已成交订单缺少成交记录或持仓变动的中间态。
type TradingEngine struct {
	catalog   *catalog.Catalog
	orders    *store.Orders
	trades    *store.Trades
	ledger    *inventory.Ledger
	executor  *sim.Executor
	sm        *order.StateMachine
	clock     sim.Clock
	ids       order.IDGenerator
	logger    *logger.Logger
	monitor   *monitor.Monitor
	publisher *event.Publisher

	mu  sync.RWMutex
	seq uint64 // 提交序号，持写锁递增
}

// placement 一次下单在锁内提交的结果。
type placement struct {
	order   order.Order
	trade   order.Trade
	filled  bool
	holding inventory.Holding
	seq     uint64
}

// Snapshot 同一读锁下取得的订单、成交与持仓，三者彼此一致。
type Snapshot struct {
	Orders   []order.Order
	Trades   []order.Trade
	Holdings []inventory.Holding
}

// New 创建交易引擎
func New(c Components) (*TradingEngine, error) {
	if c.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if c.Orders == nil {
		c.Orders = store.NewOrders()
	}
	if c.Trades == nil {
		c.Trades = store.NewTrades()
	}
	if c.Ledger == nil {
		c.Ledger = inventory.NewLedger()
	}
	if c.Clock == nil {
		c.Clock = sim.NowUTC
	}
	if c.IDs == nil {
		c.IDs = order.UUIDGenerator{}
	}
	if c.Executor == nil {
		c.Executor = sim.NewExecutor(c.Clock, c.IDs)
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return &TradingEngine{
		catalog:   c.Catalog,
		orders:    c.Orders,
		trades:    c.Trades,
		ledger:    c.Ledger,
		executor:  c.Executor,
		sm:        order.NewStateMachine(),
		clock:     c.Clock,
		ids:       c.IDs,
		logger:    c.Logger,
		monitor:   c.Monitor,
		publisher: c.Publisher,
	}, nil
}

// ListInstruments 返回全部可交易品种。
func (e *TradingEngine) ListInstruments() []catalog.Instrument {
	return e.catalog.List()
}

// GetInstrument 按代码查询品种。
func (e *TradingEngine) GetInstrument(symbol string) (catalog.Instrument, bool) {
	return e.catalog.Get(order.Request{Symbol: symbol}.Normalize().Symbol)
}

// PlaceOrder 校验并受理订单，随后立即尝试成交。
// 校验失败返回 *order.ValidationError，且不产生任何状态变化。
func (e *TradingEngine) PlaceOrder(req order.Request) (order.Order, error) {
	start := time.Now()
	req = req.Normalize()
	if err := req.Validate(e.exists); err != nil {
		e.reject(req, err)
		return order.Order{}, err
	}

	e.mu.Lock()
	p, err := e.place(req)
	e.mu.Unlock()
	if err != nil {
		e.logger.LogError(err, map[string]interface{}{"op": "place_order", "symbol": req.Symbol})
		return order.Order{}, err
	}

	e.afterPlace(p)
	if e.monitor != nil {
		e.monitor.RecordPlaceLatency(time.Since(start).Seconds())
	}
	return p.order, nil
}

// place 须持写锁调用。
func (e *TradingEngine) place(req order.Request) (placement, error) {
	inst, _ := e.catalog.Get(req.Symbol)
	o := order.Order{
		ID:        e.ids.NewID(),
		Symbol:    inst.Symbol,
		Side:      order.Side(req.OrderType),
		Style:     order.Style(req.OrderStyle),
		Quantity:  req.Quantity,
		Status:    order.StatusNew,
		Timestamp: e.clock.Now(),
	}
	if o.Style == order.StyleLimit {
		px := *req.Price
		o.Price = &px
	}
	if err := e.sm.Transition(&o, order.StatusPlaced); err != nil {
		return placement{}, err
	}

	holding := e.ledger.Holding(o.Symbol)
	trade, filled := e.executor.Attempt(o, inst, holding)
	if filled {
		if err := e.sm.Transition(&o, order.StatusExecuted); err != nil {
			return placement{}, err
		}
		if !e.trades.Append(trade) {
			return placement{}, fmt.Errorf("duplicate trade for order %s", o.ID)
		}
		holding = e.ledger.Apply(trade, inst.LastTradedPrice)
	}
	if !e.orders.Insert(o) {
		return placement{}, fmt.Errorf("duplicate order id %s", o.ID)
	}
	e.seq++
	return placement{order: o.Clone(), trade: trade, filled: filled, holding: holding, seq: e.seq}, nil
}

func (e *TradingEngine) afterPlace(p placement) {
	o, trade, filled, holding := p.order, p.trade, p.filled, p.holding
	now := e.clock.Now()
	e.logger.LogOrder("order_placed", o.ID, map[string]interface{}{
		"symbol":   o.Symbol,
		"side":     string(o.Side),
		"style":    string(o.Style),
		"quantity": o.Quantity,
		"status":   string(o.Status),
	})
	if e.monitor != nil {
		e.monitor.RecordOrderPlaced(string(o.Side), string(o.Style))
		e.monitor.RecordOrderOutcome(filled)
	}
	e.publish(event.ForOrder(event.OrderPlaced, o, now), p.seq)
	if !filled {
		return
	}

	e.logger.LogTrade("trade_executed", map[string]interface{}{
		"trade_id": trade.ID,
		"order_id": trade.OrderID,
		"symbol":   trade.Symbol,
		"side":     string(trade.Side),
		"quantity": trade.Quantity,
		"price":    trade.Price,
	})
	e.logger.LogOrder("order_executed", o.ID, map[string]interface{}{
		"symbol":   o.Symbol,
		"status":   string(o.Status),
		"trade_id": trade.ID,
		"price":    trade.Price,
	})
	if e.monitor != nil {
		e.monitor.RecordTrade(trade.Symbol, string(trade.Side), trade.Quantity, trade.Price)
		e.monitor.UpdateHolding(holding.Symbol, holding.Quantity, holding.CurrentValue)
	}
	e.publish(event.ForTrade(trade, now), p.seq)
	e.publish(event.ForOrder(event.OrderExecuted, o, now), p.seq)
}

func (e *TradingEngine) reject(req order.Request, err error) {
	var ve *order.ValidationError
	field := ""
	if errors.As(err, &ve) {
		field = ve.Field
	}
	e.logger.LogOrder("order_rejected", "", map[string]interface{}{
		"field":  field,
		"reason": err.Error(),
		"symbol": req.Symbol,
	})
	if e.monitor != nil {
		e.monitor.RecordOrderRejected(field)
	}
}

// GetOrder 查询订单，不存在时返回 order.ErrNotFound。
func (e *TradingEngine) GetOrder(id string) (order.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	o, ok := e.orders.Get(id)
	if !ok {
		return order.Order{}, fmt.Errorf("order %s: %w", id, order.ErrNotFound)
	}
	return o, nil
}

// ListOrders 按受理顺序返回全部订单。
func (e *TradingEngine) ListOrders() []order.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orders.List()
}

// CancelOrder 撤销挂单。已成交或已撤销的订单返回 order.ErrInvalidState，
// 撤单不回滚持仓（挂单从未影响持仓）。
func (e *TradingEngine) CancelOrder(id string) (order.Order, error) {
	e.mu.Lock()
	o, err := e.orders.Update(id, func(o *order.Order) error {
		if !e.sm.CanCancel(o.Status) {
			return fmt.Errorf("%w: cannot cancel order with status %s", order.ErrInvalidState, o.Status)
		}
		return e.sm.Transition(o, order.StatusCancelled)
	})
	if err == nil {
		e.seq++
	}
	seq := e.seq
	e.mu.Unlock()
	if errors.Is(err, order.ErrNotFound) {
		return order.Order{}, fmt.Errorf("order %s: %w", id, order.ErrNotFound)
	}
	if err != nil {
		return order.Order{}, err
	}

	e.logger.LogOrder("order_cancelled", o.ID, map[string]interface{}{
		"symbol": o.Symbol,
		"status": string(o.Status),
	})
	if e.monitor != nil {
		e.monitor.RecordOrderCancelled()
	}
	e.publish(event.ForOrder(event.OrderCancelled, o, e.clock.Now()), seq)
	return o, nil
}

// ListTrades 按成交顺序返回全部成交。
func (e *TradingEngine) ListTrades() []order.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trades.List()
}

// GetPortfolio 返回持仓数量大于 0 的品种，按代码排序，市值按最新价计算。
func (e *TradingEngine) GetPortfolio() []inventory.Holding {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Holdings(e.catalog)
}

// Snapshot 在一次读锁内返回订单、成交与持仓。
func (e *TradingEngine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Orders:   e.orders.List(),
		Trades:   e.trades.List(),
		Holdings: e.ledger.Holdings(e.catalog),
	}
}

func (e *TradingEngine) exists(symbol string) bool {
	_, ok := e.catalog.Get(symbol)
	return ok
}

// publish 在锁外发布；并发提交的事件可能乱序到达，订阅者按 Seq 排序。
func (e *TradingEngine) publish(ev event.Event, seq uint64) {
	ev.Seq = seq
	if e.publisher != nil {
		e.publisher.Publish(ev)
	}
}
