// tradingexample 演示如何通过 SDK 调用交易模拟服务。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"trading-system-go/client"
)

func main() {
	baseURL := flag.String("baseURL", "http://localhost:8080", "服务地址")
	flag.Parse()

	ctx := context.Background()
	c := client.New(*baseURL)

	insts, err := c.Instruments(ctx)
	if err != nil {
		log.Fatalf("查询品种失败: %v", err)
	}
	fmt.Println("== instruments ==")
	for _, inst := range insts {
		fmt.Printf("%-8s %-7s %-6s %.2f\n", inst.Symbol, inst.Exchange, inst.InstrumentType, inst.LastTradedPrice)
	}

	buy, err := c.PlaceMarketOrder(ctx, "BUY", "AAPL", 10)
	if err != nil {
		log.Fatalf("市价买入失败: %v", err)
	}
	fmt.Printf("market buy  %s -> %s\n", buy.ID, buy.Status)

	sell, err := c.PlaceLimitOrder(ctx, "SELL", "AAPL", 5, 180)
	if err != nil {
		log.Fatalf("限价卖出失败: %v", err)
	}
	fmt.Printf("limit sell  %s -> %s\n", sell.ID, sell.Status)

	status, err := c.GetOrderStatus(ctx, sell.ID)
	if err != nil {
		log.Fatalf("查询订单失败: %v", err)
	}
	fmt.Printf("order %s status %s\n", status.ID, status.Status)

	cancelled, err := c.CancelOrder(ctx, sell.ID)
	if err != nil {
		log.Fatalf("撤单失败: %v", err)
	}
	fmt.Printf("cancelled   %s -> %s\n", cancelled.ID, cancelled.Status)

	// 校验失败示例
	if _, err := c.PlaceOrder(ctx, "BUY", "LIMIT", "AAPL", 1, nil); err != nil {
		var ae *client.APIError
		if errors.As(err, &ae) {
			fmt.Printf("rejected (%d): %s\n", ae.StatusCode, ae.Message)
		}
	}

	trades, err := c.Trades(ctx)
	if err != nil {
		log.Fatalf("查询成交失败: %v", err)
	}
	fmt.Println("== trades ==")
	for _, t := range trades {
		fmt.Printf("%s %s %s %.4f @ %.2f\n", t.ID, t.Symbol, t.Side, t.Quantity, t.Price)
	}

	holdings, err := c.Portfolio(ctx)
	if err != nil {
		log.Fatalf("查询持仓失败: %v", err)
	}
	fmt.Println("== portfolio ==")
	for _, h := range holdings {
		fmt.Printf("%-8s qty=%.4f avg=%.2f value=%.2f\n", h.Symbol, h.Quantity, h.AveragePrice, h.CurrentValue)
	}
}
