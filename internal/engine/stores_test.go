package engine

import (
	"testing"

	. "bourse/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Setup & Helpers --------------------------------------------------------

func limitOrder(id OrderID, side Side, ticker string, price float64) Order {
	return Order{
		ID:          id,
		Customer:    "CLIENT",
		Side:        side,
		Quantity:    100,
		Ticker:      ticker,
		OrderType:   LimitOrder,
		LimitPrice:  SomePrice(price),
		TimeInForce: GoodTillCancelled,
	}
}

func marketOrder(id OrderID, side Side, ticker string) Order {
	return Order{
		ID:          id,
		Customer:    "CLIENT",
		Side:        side,
		Quantity:    100,
		Ticker:      ticker,
		OrderType:   MarketOrder,
		TimeInForce: GoodTillCancelled,
	}
}

func withTrigger(order Order, trigger float64) Order {
	order.TriggerPrice = SomePrice(trigger)
	return order
}

func ids(orders []Order) []OrderID {
	out := make([]OrderID, len(orders))
	for i, order := range orders {
		out[i] = order.ID
	}
	return out
}

// --- Market queue -----------------------------------------------------------

func TestMarketQueue_FIFO(t *testing.T) {
	queue := NewMarketQueue(Sell, TriggerEvaluator{})
	queue.Enqueue(marketOrder(1, Sell, "IBM"))
	queue.Enqueue(marketOrder(2, Sell, "IBM"))
	queue.Enqueue(marketOrder(3, Sell, "IBM"))

	matched, ok := queue.FindMatch(limitOrder(10, Buy, "IBM", 100))
	require.True(t, ok)
	assert.Equal(t, OrderID(1), matched.ID, "earliest order must match first")
	assert.Equal(t, []OrderID{2, 3}, ids(queue.Orders()))
}

func TestMarketQueue_SkipsOtherTickersAndDormantStops(t *testing.T) {
	queue := NewMarketQueue(Sell, TriggerEvaluator{})
	queue.Enqueue(marketOrder(1, Sell, "GOOG"))
	queue.Enqueue(withTrigger(marketOrder(2, Sell, "IBM"), 105))
	queue.Enqueue(marketOrder(3, Sell, "IBM"))

	matched, ok := queue.FindMatch(limitOrder(10, Buy, "IBM", 100))
	require.True(t, ok)
	assert.Equal(t, OrderID(3), matched.ID)
	assert.Equal(t, []OrderID{1, 2}, ids(queue.Orders()))

	// Once IBM has traded below the trigger the stop becomes eligible.
	queue.UpdateLastExecutedPrice("IBM", 100)
	matched, ok = queue.FindMatch(limitOrder(11, Buy, "IBM", 100))
	require.True(t, ok)
	assert.Equal(t, OrderID(2), matched.ID)
}

func TestMarketQueue_NoMatch(t *testing.T) {
	queue := NewMarketQueue(Buy, TriggerEvaluator{})
	_, ok := queue.FindMatch(limitOrder(1, Sell, "IBM", 100))
	assert.False(t, ok)

	queue.Enqueue(marketOrder(2, Buy, "GOOG"))
	_, ok = queue.FindMatch(limitOrder(3, Sell, "IBM", 100))
	assert.False(t, ok)
	assert.Equal(t, 1, queue.Size())
}

func TestMarketQueue_Remove(t *testing.T) {
	queue := NewMarketQueue(Buy, TriggerEvaluator{})
	queue.Enqueue(marketOrder(1, Buy, "IBM"))
	queue.Enqueue(marketOrder(2, Buy, "IBM"))

	assert.True(t, queue.Remove(1))
	assert.False(t, queue.Remove(1))
	assert.False(t, queue.Contains(1))
	assert.True(t, queue.Contains(2))
}

// --- Limit list -------------------------------------------------------------

func TestLimitList_LowestAskForBuy(t *testing.T) {
	list := NewLimitList(Sell, TriggerEvaluator{})
	list.AddOrderToList(limitOrder(1, Sell, "IBM", 101))
	list.AddOrderToList(limitOrder(2, Sell, "IBM", 99))
	list.AddOrderToList(limitOrder(3, Sell, "IBM", 100))

	matched, ok := list.FindMatch(marketOrder(10, Buy, "IBM"))
	require.True(t, ok)
	assert.Equal(t, OrderID(2), matched.ID)
	assert.Equal(t, []OrderID{1, 3}, ids(list.Orders()))
}

func TestLimitList_HighestBidForSell(t *testing.T) {
	list := NewLimitList(Buy, TriggerEvaluator{})
	list.AddOrderToList(limitOrder(1, Buy, "IBM", 99))
	list.AddOrderToList(limitOrder(2, Buy, "IBM", 101))
	list.AddOrderToList(limitOrder(3, Buy, "IBM", 100))

	matched, ok := list.FindMatch(marketOrder(10, Sell, "IBM"))
	require.True(t, ok)
	assert.Equal(t, OrderID(2), matched.ID)
}

func TestLimitList_TieKeepsEarliest(t *testing.T) {
	list := NewLimitList(Sell, TriggerEvaluator{})
	list.AddOrderToList(limitOrder(1, Sell, "IBM", 101))
	list.AddOrderToList(limitOrder(2, Sell, "IBM", 100))
	list.AddOrderToList(limitOrder(3, Sell, "IBM", 100))

	matched, ok := list.FindMatch(marketOrder(10, Buy, "IBM"))
	require.True(t, ok)
	assert.Equal(t, OrderID(2), matched.ID)

	matched, ok = list.FindMatch(marketOrder(11, Buy, "IBM"))
	require.True(t, ok)
	assert.Equal(t, OrderID(3), matched.ID)
}

func TestLimitList_IncomingLimitMustCross(t *testing.T) {
	list := NewLimitList(Sell, TriggerEvaluator{})
	list.AddOrderToList(limitOrder(1, Sell, "IBM", 101))

	_, ok := list.FindMatch(limitOrder(10, Buy, "IBM", 100))
	assert.False(t, ok)
	assert.Equal(t, 1, list.Size())

	matched, ok := list.FindMatch(limitOrder(11, Buy, "IBM", 101))
	require.True(t, ok)
	assert.Equal(t, OrderID(1), matched.ID)

	bids := NewLimitList(Buy, TriggerEvaluator{})
	bids.AddOrderToList(limitOrder(2, Buy, "IBM", 99))
	_, ok = bids.FindMatch(limitOrder(12, Sell, "IBM", 100))
	assert.False(t, ok)
	_, ok = bids.FindMatch(limitOrder(13, Sell, "IBM", 98))
	assert.True(t, ok)
}

func TestLimitList_IneligibleStopDoesNotLead(t *testing.T) {
	list := NewLimitList(Sell, TriggerEvaluator{})
	list.AddOrderToList(withTrigger(limitOrder(1, Sell, "IBM", 95), 90))
	list.AddOrderToList(limitOrder(2, Sell, "IBM", 100))
	list.AddOrderToList(limitOrder(3, Sell, "GOOG", 50))

	matched, ok := list.FindMatch(marketOrder(10, Buy, "IBM"))
	require.True(t, ok)
	assert.Equal(t, OrderID(2), matched.ID)
	assert.Equal(t, []OrderID{1, 3}, ids(list.Orders()))
}

// --- Holding set ------------------------------------------------------------

func TestHoldingSet(t *testing.T) {
	held := NewHoldingSet()
	held.Add(withTrigger(marketOrder(3, Sell, "IBM"), 10))
	held.Add(withTrigger(marketOrder(1, Buy, "IBM"), 10))
	held.Add(withTrigger(marketOrder(2, Buy, "IBM"), 10))

	assert.Equal(t, []OrderID{3, 1, 2}, ids(held.Snapshot()), "admission order")

	snapshot := held.Snapshot()
	assert.True(t, held.Remove(1))
	assert.Len(t, snapshot, 3, "snapshots are detached")

	order, ok := held.Get(2)
	require.True(t, ok)
	assert.Equal(t, OrderID(2), order.ID)
	_, ok = held.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 2, held.Size())
}
