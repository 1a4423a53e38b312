package engine

import (
	"bourse/internal/common"
)

// MarketQueue holds resting market and stop-market orders for one side in
// arrival order. Market orders carry no price, so only time priority applies.
type MarketQueue struct {
	side    common.Side
	orders  sequenced
	trigger TriggerEvaluator
	prices  *LastPrices
}

func NewMarketQueue(side common.Side, trigger TriggerEvaluator) *MarketQueue {
	return &MarketQueue{
		side:    side,
		orders:  newSequenced(),
		trigger: trigger,
		prices:  NewLastPrices(),
	}
}

func (q *MarketQueue) Side() common.Side { return q.side }

func (q *MarketQueue) Enqueue(order common.Order) { q.orders.add(order) }

// FindMatch removes and returns the earliest resting order on the incoming
// order's ticker whose stop conditions allow the trade.
func (q *MarketQueue) FindMatch(incoming common.Order) (common.Order, bool) {
	last := q.prices.Get(incoming.Ticker)

	var (
		matched common.Order
		found   bool
	)
	q.orders.scan(func(candidate common.Order) bool {
		if candidate.Ticker != incoming.Ticker {
			return true
		}
		if !q.trigger.Eligible(incoming, candidate, last) {
			return true
		}
		matched, found = candidate, true
		return false
	})
	if !found {
		return common.Order{}, false
	}

	q.orders.remove(matched.ID)
	return matched, true
}

// Remove takes a specific order out of the queue.
func (q *MarketQueue) Remove(id common.OrderID) bool {
	_, ok := q.orders.remove(id)
	return ok
}

func (q *MarketQueue) Contains(id common.OrderID) bool { return q.orders.contains(id) }

func (q *MarketQueue) UpdateLastExecutedPrice(ticker string, price float64) {
	q.prices.Update(ticker, price)
}

func (q *MarketQueue) LastExecutedPrice(ticker string) common.Price {
	return q.prices.Get(ticker)
}

func (q *MarketQueue) Size() int { return q.orders.len() }

// Orders returns the resting orders in arrival order.
func (q *MarketQueue) Orders() []common.Order { return q.orders.snapshot() }
