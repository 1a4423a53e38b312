package engine

import "bourse/internal/common"

// TriggerEvaluator decides whether stop conditions currently allow a pair of
// orders to trade. It holds no state.
type TriggerEvaluator struct{}

// Eligible reports whether incoming may trade with candidate given the last
// executed price of their ticker.
//
// Orders without a trigger price are always eligible. A stop order is only
// eligible once its ticker has traded and its own condition holds. When both
// orders are stops, the buy leg and the sell leg must both fire.
func (TriggerEvaluator) Eligible(incoming, candidate common.Order, last common.Price) bool {
	switch {
	case !incoming.IsStop() && !candidate.IsStop():
		return true
	case incoming.IsStop() && !candidate.IsStop():
		return fires(incoming, last)
	case !incoming.IsStop() && candidate.IsStop():
		return fires(candidate, last)
	}

	buyLeg, sellLeg := incoming, candidate
	if incoming.Side == common.Sell {
		buyLeg, sellLeg = candidate, incoming
	}
	return fires(buyLeg, last) && fires(sellLeg, last)
}

// fires reports whether a stop order's condition holds. A buy stop fires
// when its trigger is below the last price, a sell stop when it is above.
func fires(order common.Order, last common.Price) bool {
	price, ok := last.Get()
	if !ok {
		return false
	}
	trigger, _ := order.TriggerPrice.Get()
	switch order.Side {
	case common.Buy:
		return trigger < price
	case common.Sell:
		return trigger > price
	}
	return false
}
