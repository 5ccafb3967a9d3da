package logschema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

var schemas = map[string]Schema{
	"order_placed": {
		Event:    "order_placed",
		Required: []string{"symbol", "side", "style", "quantity", "status"},
	},
	"order_executed": {
		Event:    "order_executed",
		Required: []string{"symbol", "status", "trade_id", "price"},
	},
	"order_cancelled": {
		Event:    "order_cancelled",
		Required: []string{"symbol", "status"},
	},
	"order_rejected": {
		Event:    "order_rejected",
		Required: []string{"field", "reason"},
	},
	"trade_executed": {
		Event:    "trade_executed",
		Required: []string{"trade_id", "order_id", "symbol", "side", "quantity", "price"},
	},
}

// Known 返回所有事件名，便于外部生成文档。
func Known() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate 检查日志字段是否包含 schema 中要求的 key，未登记的事件不校验。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ","))
	}
	return nil
}
