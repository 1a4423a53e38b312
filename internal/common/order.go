package common

import "fmt"

type OrderID uint64

// Order is one order intent. Orders are passed by value and never mutated
// once they reach the exchange.
type Order struct {
	ID           OrderID     // Caller assigned, unique
	Customer     string      // Opaque customer reference
	Side         Side        // Order side
	Quantity     uint64      // Requested volume, always > 0
	Ticker       string      // Instrument symbol
	OrderType    OrderType   //
	LimitPrice   Price       // Set iff OrderType == LimitOrder
	TimeInForce  TimeInForce //
	TriggerPrice Price       // Set for stop orders
}

// IsStop reports whether the order carries a trigger price.
func (order Order) IsStop() bool { return order.TriggerPrice.IsSet() }

// Probe returns a fill-or-kill copy of the order with the same economic terms.
func (order Order) Probe() Order {
	probe := order
	probe.TimeInForce = FillOrKill
	return probe
}

func (order Order) String() string {
	return fmt.Sprintf(
		`ID:           %d
Customer:     %s
Side:         %v
Quantity:     %d
Ticker:       %s
OrderType:    %v
LimitPrice:   %v
TimeInForce:  %v
TriggerPrice: %v`,
		order.ID,
		order.Customer,
		order.Side,
		order.Quantity,
		order.Ticker,
		order.OrderType,
		order.LimitPrice,
		order.TimeInForce,
		order.TriggerPrice,
	)
}
