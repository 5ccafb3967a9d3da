package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trading-system-go/event"
	"trading-system-go/infrastructure/logger"
	"trading-system-go/infrastructure/monitor"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// streamClient 一个 websocket 连接。
type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub 订阅事件发布器并向所有 websocket 连接广播；缓冲写满的慢连接会被断开。
type Hub struct {
	publisher  *event.Publisher
	upgrader   websocket.Upgrader
	bufferSize int
	logger     *logger.Logger
	monitor    *monitor.Monitor

	clients    map[*streamClient]bool
	register   chan *streamClient
	unregister chan *streamClient
	count      atomic.Int64

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub 创建 Hub；需调用 Start 后才会广播。
func NewHub(pub *event.Publisher, bufferSize int, log *logger.Logger, mon *monitor.Monitor) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		publisher:  pub,
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		bufferSize: bufferSize,
		logger:     log,
		monitor:    mon,
		clients:    make(map[*streamClient]bool),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		done:       make(chan struct{}),
	}
}

// Start 启动广播循环。
func (h *Hub) Start(ctx context.Context) error {
	ctx, h.cancel = context.WithCancel(ctx)
	events, unsubscribe := h.publisher.Subscribe(h.bufferSize)
	go h.run(ctx, events, unsubscribe)
	return nil
}

// Stop 断开所有连接并退出广播循环。
func (h *Hub) Stop() error {
	h.stopOnce.Do(func() {
		if h.cancel == nil {
			close(h.done)
			return
		}
		h.cancel()
		<-h.done
	})
	return nil
}

func (h *Hub) Health() error {
	select {
	case <-h.done:
		return errors.New("stream hub stopped")
	default:
		return nil
	}
}

// Clients 当前连接数。
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

func (h *Hub) run(ctx context.Context, events <-chan event.Event, unsubscribe func()) {
	defer close(h.done)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.count.Add(1)
			if h.monitor != nil {
				h.monitor.StreamClientConnected()
			}
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("encode stream event", zap.Error(err))
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Info("dropping slow stream client", zap.String("remote", c.conn.RemoteAddr().String()))
					h.drop(c)
				}
			}
		}
	}
}

// drop 只在 run 协程内调用。
func (h *Hub) drop(c *streamClient) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
	if h.monitor != nil {
		h.monitor.StreamClientDisconnected()
	}
}

// ServeHTTP 升级为 websocket 并注册连接。
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写回错误响应
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &streamClient{conn: conn, send: make(chan []byte, h.bufferSize)}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump 丢弃客户端消息，仅用于感知断开与 pong。
func (h *Hub) readPump(c *streamClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
