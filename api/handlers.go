package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"trading-system-go/order"
)

// placeOrderBody 用指针区分缺省字段与零值。
type placeOrderBody struct {
	OrderType  *string  `json:"orderType"`
	OrderStyle *string  `json:"orderStyle"`
	Symbol     *string  `json:"symbol"`
	Quantity   *float64 `json:"quantity"`
	Price      *float64 `json:"price"`
}

func (b placeOrderBody) request() (order.Request, error) {
	switch {
	case b.OrderType == nil:
		return order.Request{}, fmt.Errorf("orderType is required")
	case b.OrderStyle == nil:
		return order.Request{}, fmt.Errorf("orderStyle is required")
	case b.Symbol == nil:
		return order.Request{}, fmt.Errorf("symbol is required")
	case b.Quantity == nil:
		return order.Request{}, fmt.Errorf("quantity is required")
	}
	return order.Request{
		OrderType:  *b.OrderType,
		OrderStyle: *b.OrderStyle,
		Symbol:     *b.Symbol,
		Quantity:   *b.Quantity,
		Price:      b.Price,
	}.Normalize(), nil
}

func (s *Server) handleListInstruments(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.ListInstruments())
}

func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	inst, ok := s.engine.GetInstrument(symbol)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("Instrument %s not found", symbol))
		return
	}
	s.writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body placeOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req, err := body.request()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := s.engine.PlaceOrder(req)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleListOrders(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.ListOrders())
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.engine.GetOrder(r.PathValue("orderId"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.engine.CancelOrder(r.PathValue("orderId"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleListTrades(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.ListTrades())
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.GetPortfolio())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
