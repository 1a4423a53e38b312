package engine

import (
	"math"

	"bourse/internal/common"
)

// LimitList holds resting limit and stop-limit orders for one side. A match
// is found by scanning every entry for the best eligible price.
type LimitList struct {
	side    common.Side
	orders  sequenced
	trigger TriggerEvaluator
	prices  *LastPrices
}

func NewLimitList(side common.Side, trigger TriggerEvaluator) *LimitList {
	return &LimitList{
		side:    side,
		orders:  newSequenced(),
		trigger: trigger,
		prices:  NewLastPrices(),
	}
}

func (l *LimitList) Side() common.Side { return l.side }

func (l *LimitList) AddOrderToList(order common.Order) { l.orders.add(order) }

// FindMatch removes and returns the best priced eligible order for incoming.
//
// An incoming buy looks for the lowest ask and an incoming sell for the
// highest bid. The running best only moves on a strict improvement, so on a
// price tie the earliest admitted order keeps its priority. An incoming
// limit order additionally requires the prices to cross.
func (l *LimitList) FindMatch(incoming common.Order) (common.Order, bool) {
	last := l.prices.Get(incoming.Ticker)

	best := math.Inf(1)
	if incoming.Side == common.Sell {
		best = math.Inf(-1)
	}

	var (
		leader common.Order
		found  bool
	)
	l.orders.scan(func(candidate common.Order) bool {
		if candidate.Ticker != incoming.Ticker {
			return true
		}
		price, _ := candidate.LimitPrice.Get()
		if !crosses(incoming, price) {
			return true
		}
		if !l.trigger.Eligible(incoming, candidate, last) {
			return true
		}
		if improves(incoming.Side, price, best) {
			best = price
			leader, found = candidate, true
		}
		return true
	})
	if !found {
		return common.Order{}, false
	}

	l.orders.remove(leader.ID)
	return leader, true
}

// crosses reports whether a resting limit price is acceptable to incoming.
// Market orders accept any price.
func crosses(incoming common.Order, restingPrice float64) bool {
	limit, ok := incoming.LimitPrice.Get()
	if incoming.OrderType != common.LimitOrder || !ok {
		return true
	}
	if incoming.Side == common.Buy {
		return restingPrice <= limit
	}
	return restingPrice >= limit
}

// improves reports whether price is strictly better than best for an
// incoming order of the given side.
func improves(side common.Side, price, best float64) bool {
	if side == common.Buy {
		return price < best
	}
	return price > best
}

// Remove takes a specific order out of the list.
func (l *LimitList) Remove(id common.OrderID) bool {
	_, ok := l.orders.remove(id)
	return ok
}

func (l *LimitList) Contains(id common.OrderID) bool { return l.orders.contains(id) }

func (l *LimitList) UpdateLastExecutedPrice(ticker string, price float64) {
	l.prices.Update(ticker, price)
}

func (l *LimitList) LastExecutedPrice(ticker string) common.Price {
	return l.prices.Get(ticker)
}

func (l *LimitList) Size() int { return l.orders.len() }

// Orders returns the resting orders in admission order.
func (l *LimitList) Orders() []common.Order { return l.orders.snapshot() }
