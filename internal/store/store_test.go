package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-system-go/order"
)

func TestOrdersInsertionOrder(t *testing.T) {
	s := NewOrders()
	for _, id := range []string{"c", "a", "b"} {
		require.True(t, s.Insert(order.Order{ID: id, Symbol: "AAPL", Status: order.StatusPlaced}))
	}
	assert.False(t, s.Insert(order.Order{ID: "a"}), "duplicate id rejected")

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "b", list[2].ID)
	assert.Equal(t, 3, s.Len())
}

func TestOrdersSnapshotIsCopy(t *testing.T) {
	s := NewOrders()
	px := 10.0
	s.Insert(order.Order{ID: "1", Price: &px, Status: order.StatusPlaced})
	px = 99

	list := s.List()
	list[0].Status = order.StatusCancelled
	*list[0].Price = 50

	got, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, order.StatusPlaced, got.Status)
	assert.Equal(t, 10.0, got.LimitPrice())
}

func TestOrdersUpdate(t *testing.T) {
	s := NewOrders()
	s.Insert(order.Order{ID: "1", Status: order.StatusPlaced})

	got, err := s.Update("1", func(o *order.Order) error {
		o.Status = order.StatusCancelled
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)

	boom := errors.New("boom")
	got, err = s.Update("1", func(o *order.Order) error {
		o.Status = order.StatusExecuted
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, order.StatusCancelled, got.Status)
	stored, _ := s.Get("1")
	assert.Equal(t, order.StatusCancelled, stored.Status, "failed update leaves order untouched")

	_, err = s.Update("missing", func(*order.Order) error { return nil })
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestTradesAppend(t *testing.T) {
	s := NewTrades()
	require.True(t, s.Append(order.Trade{ID: "t1", OrderID: "o1", Quantity: 1}))
	require.True(t, s.Append(order.Trade{ID: "t2", OrderID: "o2", Quantity: 2}))
	assert.False(t, s.Append(order.Trade{ID: "t3", OrderID: "o1"}), "one trade per order")

	tr, ok := s.ForOrder("o2")
	require.True(t, ok)
	assert.Equal(t, "t2", tr.ID)
	_, ok = s.ForOrder("o3")
	assert.False(t, ok)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ID)
	list[0].Quantity = 100
	assert.Equal(t, 1.0, s.List()[0].Quantity)
}
