package monitor

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 订单指标
	ordersPlaced    *prometheus.CounterVec
	ordersExecuted  prometheus.Counter
	ordersUnfilled  prometheus.Counter
	ordersCancelled prometheus.Counter
	ordersRejected  *prometheus.CounterVec
	placeLatency    prometheus.Histogram

	// 成交指标
	tradesTotal    *prometheus.CounterVec
	tradedVolume   *prometheus.CounterVec
	tradedNotional *prometheus.CounterVec

	// 持仓指标
	holdingQty   *prometheus.GaugeVec
	holdingValue *prometheus.GaugeVec

	// 接口指标
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	streamClients prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "trader",
		Subsystem: "sim",
	}
}

// New 创建新的Monitor实例，每个实例持有独立的registry
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		}, labels)
	}
	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		}, labels)
	}

	return &Monitor{
		registry: reg,

		ordersPlaced:    counterVec("orders_placed_total", "受理的订单总数", "side", "style"),
		ordersExecuted:  counter("orders_executed_total", "下单即成交的订单总数"),
		ordersUnfilled:  counter("orders_unfilled_total", "下单后未成交、保持挂单的订单总数"),
		ordersCancelled: counter("orders_cancelled_total", "撤单总数"),
		ordersRejected:  counterVec("orders_rejected_total", "校验失败的下单请求总数", "field"),
		placeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "place_order_latency_seconds",
			Help:      "下单处理耗时分布（秒）",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		tradesTotal:    counterVec("trades_total", "成交笔数总数", "symbol", "side"),
		tradedVolume:   counterVec("traded_volume_total", "累计成交数量", "symbol", "side"),
		tradedNotional: counterVec("traded_notional_total", "累计成交金额", "symbol", "side"),

		holdingQty:   gaugeVec("holding_quantity", "当前持仓数量", "symbol"),
		holdingValue: gaugeVec("holding_value", "当前持仓市值", "symbol"),

		httpRequests: counterVec("http_requests_total", "HTTP请求总数", "route", "code"),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_latency_seconds",
			Help:      "HTTP请求延迟（秒）",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "stream_clients",
			Help:      "当前事件推送连接数",
		}),
	}
}

// 订单相关方法
func (m *Monitor) RecordOrderPlaced(side, style string) {
	m.ordersPlaced.WithLabelValues(side, style).Inc()
}

// RecordOrderOutcome 记录下单结果：立即成交或保持挂单。
func (m *Monitor) RecordOrderOutcome(executed bool) {
	if executed {
		m.ordersExecuted.Inc()
		return
	}
	m.ordersUnfilled.Inc()
}

func (m *Monitor) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

func (m *Monitor) RecordOrderRejected(field string) {
	if field == "" {
		field = "unknown"
	}
	m.ordersRejected.WithLabelValues(field).Inc()
}

func (m *Monitor) RecordPlaceLatency(seconds float64) {
	m.placeLatency.Observe(seconds)
}

// 成交相关方法
func (m *Monitor) RecordTrade(symbol, side string, qty, price float64) {
	m.tradesTotal.WithLabelValues(symbol, side).Inc()
	m.tradedVolume.WithLabelValues(symbol, side).Add(qty)
	m.tradedNotional.WithLabelValues(symbol, side).Add(qty * price)
}

// 持仓相关方法
func (m *Monitor) UpdateHolding(symbol string, qty, value float64) {
	m.holdingQty.WithLabelValues(symbol).Set(qty)
	m.holdingValue.WithLabelValues(symbol).Set(value)
}

// 接口相关方法
func (m *Monitor) RecordHTTPRequest(route string, code int, seconds float64) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(seconds)
}

func (m *Monitor) StreamClientConnected() {
	m.streamClients.Inc()
}

func (m *Monitor) StreamClientDisconnected() {
	m.streamClients.Dec()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
