package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"trading-system-go/event"
)

// Subscribe 连接事件推送并对每个事件调用 handler，直到 ctx 取消或连接断开。
// ctx 取消时返回 nil。
func (c *Client) Subscribe(ctx context.Context, handler func(event.Event)) error {
	u, err := url.Parse(c.BaseURL + "/api/v1/stream")
	if err != nil {
		return fmt.Errorf("parse stream url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev event.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if handler != nil {
			handler(ev)
		}
	}
}
