package store

import (
	"fmt"
	"sync"
	"testing"

	"trading-system-go/order"
)

// TestOrders_ConcurrentInsertAndUpdate 测试并发写入与状态更新的安全性
func TestOrders_ConcurrentInsertAndUpdate(t *testing.T) {
	s := NewOrders()

	var wg sync.WaitGroup
	operations := 100

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				id := fmt.Sprintf("%d-%d", workerID, j)
				s.Insert(order.Order{ID: id, Status: order.StatusPlaced})
				_, _ = s.Update(id, func(o *order.Order) error {
					o.Status = order.StatusCancelled
					return nil
				})
			}
		}(i)
	}

	// 并发读取
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				for _, o := range s.List() {
					if o.Status != order.StatusPlaced && o.Status != order.StatusCancelled {
						t.Errorf("unexpected status %s", o.Status)
					}
				}
			}
		}()
	}

	wg.Wait()

	if got := s.Len(); got != 5*operations {
		t.Fatalf("expected %d orders, got %d", 5*operations, got)
	}
}

// TestTrades_ConcurrentAppend 测试并发追加成交
func TestTrades_ConcurrentAppend(t *testing.T) {
	s := NewTrades()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Append(order.Trade{ID: fmt.Sprintf("t%d-%d", workerID, j), OrderID: fmt.Sprintf("o%d-%d", workerID, j)})
				_ = s.List()
			}
		}(i)
	}
	wg.Wait()

	if got := s.Len(); got != 250 {
		t.Fatalf("expected 250 trades, got %d", got)
	}
}
