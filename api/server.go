// Package api 通过 HTTP/JSON 暴露交易门面，并通过 websocket 推送订单与成交事件。
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"trading-system-go/infrastructure/logger"
	"trading-system-go/infrastructure/monitor"
	"trading-system-go/internal/engine"
)

// Server HTTP 接口，路由均挂在 /api/v1 下。
type Server struct {
	engine  *engine.TradingEngine
	hub     *Hub
	logger  *logger.Logger
	monitor *monitor.Monitor
}

// Options 可选依赖。
type Options struct {
	Logger  *logger.Logger
	Monitor *monitor.Monitor
	Hub     *Hub // 为空时不注册 /api/v1/stream
}

func NewServer(eng *engine.TradingEngine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Server{
		engine:  eng,
		hub:     opts.Hub,
		logger:  opts.Logger,
		monitor: opts.Monitor,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/instruments", s.handleListInstruments)
	mux.HandleFunc("GET /api/v1/instruments/{symbol}", s.handleGetInstrument)
	mux.HandleFunc("POST /api/v1/orders", s.handlePlaceOrder)
	mux.HandleFunc("GET /api/v1/orders", s.handleListOrders)
	mux.HandleFunc("GET /api/v1/orders/{orderId}", s.handleGetOrder)
	mux.HandleFunc("DELETE /api/v1/orders/{orderId}", s.handleCancelOrder)
	mux.HandleFunc("GET /api/v1/trades", s.handleListTrades)
	mux.HandleFunc("GET /api/v1/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.hub != nil {
		mux.Handle("GET /api/v1/stream", s.hub)
	}
}

// Handler returns an http.Handler with access log and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.instrument(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			// 升级请求需要原始 writer 的 Hijacker，且连接时长不计入请求耗时
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		_, route := next.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		if s.monitor != nil {
			s.monitor.RecordHTTPRequest(route, rec.status, elapsed.Seconds())
		}
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}
