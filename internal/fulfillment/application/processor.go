package application

import (
	"context"
	"fmt"
)

// Processor walks every line item of an order through the engine. Items are
// handled strictly in sequence; the first failure aborts the rest of the call
// and already-committed item writes stay in place.
type Processor struct {
	orders OrderRepository
	engine *Engine
}

func NewProcessor(orders OrderRepository, engine *Engine) *Processor {
	return &Processor{orders: orders, engine: engine}
}

// Process returns the order id as an acknowledgement, not a report of what
// changed. An order with zero line items is a valid success.
func (s *Processor) Process(ctx context.Context, orderID string) (string, error) {
	order, err := s.orders.FindOrderWithProducts(ctx, orderID)
	if err != nil {
		return "", err
	}
	for _, p := range order.Products {
		if err := s.engine.Apply(ctx, p); err != nil {
			return "", fmt.Errorf("order %s, product %s: %w", order.ID, p.ID, err)
		}
	}
	return order.ID, nil
}
