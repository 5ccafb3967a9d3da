package logschema

import "testing"

func TestValidate(t *testing.T) {
	err := Validate("trade_executed", map[string]interface{}{
		"trade_id": "t1",
		"order_id": "o1",
		"symbol":   "AAPL",
		"side":     "BUY",
		"quantity": 10.0,
		"price":    175.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Validate("trade_executed", map[string]interface{}{
		"symbol": "AAPL",
	})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
	if err := Validate("unknown_event", nil); err != nil {
		t.Fatalf("unknown events are not validated: %v", err)
	}
}

func TestKnownEvents(t *testing.T) {
	names := Known()
	if len(names) == 0 {
		t.Fatalf("expected non-empty schema list")
	}
	found := false
	for _, n := range names {
		if n == "order_cancelled" {
			found = true
		}
	}
	if !found {
		t.Fatalf("order_cancelled not found in schemas")
	}
}
