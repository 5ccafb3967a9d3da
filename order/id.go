package order

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator 生成进程内唯一的订单/成交 ID。
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator 使用随机 UUID。
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceGenerator 生成 prefix-1, prefix-2 ...，用于测试。
type SequenceGenerator struct {
	Prefix string
	n      atomic.Uint64
}

func (g *SequenceGenerator) NewID() string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return prefix + "-" + strconv.FormatUint(g.n.Add(1), 10)
}
