package engine

import (
	"fmt"
	"testing"

	. "bourse/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestExchange() *Exchange {
	x := New()
	n := 0
	x.newUUID = func() string {
		n++
		return fmt.Sprintf("agreement-%d", n)
	}
	return x
}

func customer(order Order, name string) Order {
	order.Customer = name
	return order
}

func fillOrKill(order Order) Order {
	order.TimeInForce = FillOrKill
	return order
}

func TestSubmit_ScenarioA(t *testing.T) {
	x := createTestExchange()

	outcome := x.Submit(customer(limitOrder(1, Buy, "IBM", 102.93), "CLIENT1"))
	assert.False(t, outcome.Matched())

	outcome = x.Submit(customer(marketOrder(2, Sell, "IBM"), "CLIENT2"))
	require.True(t, outcome.Matched())
	require.Len(t, outcome.Agreements, 1)

	agreement := outcome.Agreements[0]
	assert.Equal(t, "CLIENT1,CLIENT2,IBM,100,102.93,1", agreement.String())
	assert.Equal(t, OrderID(1), agreement.BuyOrderID)
	assert.Equal(t, OrderID(2), agreement.SellOrderID)
	assert.Equal(t, "agreement-1", agreement.UUID)
	assert.Equal(t, Depth{}, x.Depth())

	price, ok := x.LastExecutedPrice("IBM").Get()
	require.True(t, ok)
	assert.Equal(t, 102.93, price)
}

func TestSubmit_AgreementUsesTradeDay(t *testing.T) {
	x := createTestExchange()
	assert.Equal(t, 1, x.Day())
	assert.Equal(t, 2, x.AdvanceDay())
	assert.Equal(t, 3, x.AdvanceDay())

	x.Submit(limitOrder(1, Sell, "IBM", 50))
	outcome := x.Submit(marketOrder(2, Buy, "IBM"))
	require.Len(t, outcome.Agreements, 1)
	assert.Equal(t, 3, outcome.Agreements[0].Date)
}

func TestSubmit_AttributesBuyerAndSellerByIncomingSide(t *testing.T) {
	x := createTestExchange()
	x.Submit(customer(limitOrder(1, Sell, "IBM", 100), "SELLER"))
	outcome := x.Submit(customer(limitOrder(2, Buy, "IBM", 101), "BUYER"))
	require.Len(t, outcome.Agreements, 1)

	agreement := outcome.Agreements[0]
	assert.Equal(t, "BUYER", agreement.Buyer)
	assert.Equal(t, "SELLER", agreement.Seller)
	// The resting order's price wins.
	assert.Equal(t, 100.0, agreement.Price)
	assert.Equal(t, uint64(100), agreement.Quantity)
}

func TestSubmit_IncomingLimitPricesRestingMarket(t *testing.T) {
	x := createTestExchange()
	x.Submit(marketOrder(1, Buy, "IBM"))
	outcome := x.Submit(limitOrder(2, Sell, "IBM", 98.5))
	require.Len(t, outcome.Agreements, 1)
	assert.Equal(t, 98.5, outcome.Agreements[0].Price)
}

func TestSubmit_LimitProbesMarketQueueFirst(t *testing.T) {
	x := createTestExchange()
	x.Submit(limitOrder(1, Sell, "IBM", 90))
	x.Submit(marketOrder(2, Sell, "IBM"))

	outcome := x.Submit(limitOrder(3, Buy, "IBM", 100))
	require.Len(t, outcome.Agreements, 1)
	assert.Equal(t, OrderID(2), outcome.Agreements[0].SellOrderID)
	assert.Equal(t, 100.0, outcome.Agreements[0].Price)
	assert.True(t, x.Resting(1))
}

func TestSubmit_MarketOrdersNeverCross(t *testing.T) {
	x := createTestExchange()
	x.Submit(marketOrder(1, Sell, "IBM"))
	outcome := x.Submit(marketOrder(2, Buy, "IBM"))

	assert.False(t, outcome.Matched())
	assert.Equal(t, Depth{BuyMarket: 1, SellMarket: 1}, x.Depth())
}

func TestSubmit_FIFOFairness(t *testing.T) {
	x := createTestExchange()
	x.Submit(customer(marketOrder(1, Sell, "IBM"), "FIRST"))
	x.Submit(customer(marketOrder(2, Sell, "IBM"), "SECOND"))
	x.Submit(customer(marketOrder(3, Sell, "IBM"), "THIRD"))

	for i, want := range []string{"FIRST", "SECOND", "THIRD"} {
		outcome := x.Submit(limitOrder(OrderID(10+i), Buy, "IBM", 100))
		require.Len(t, outcome.Agreements, 1)
		assert.Equal(t, want, outcome.Agreements[0].Seller)
	}
}

func TestSubmit_FillOrKillLeavesNoTrace(t *testing.T) {
	x := createTestExchange()
	x.Submit(limitOrder(1, Sell, "IBM", 105))
	before := x.Depth()

	outcome := x.Submit(fillOrKill(limitOrder(2, Buy, "IBM", 100)))
	assert.False(t, outcome.Matched())
	assert.Equal(t, before, x.Depth())
	assert.False(t, x.Resting(2))

	outcome = x.Submit(fillOrKill(withTrigger(marketOrder(3, Buy, "IBM"), 1)))
	assert.False(t, outcome.Matched())
	assert.False(t, x.Held(3))
	assert.Equal(t, before, x.Depth())

	// A later order cannot discover the killed orders.
	outcome = x.Submit(marketOrder(4, Sell, "IBM"))
	assert.False(t, outcome.Matched())
}

func TestSubmit_FillOrKillMatchesImmediately(t *testing.T) {
	x := createTestExchange()
	x.Submit(limitOrder(1, Sell, "IBM", 99))
	outcome := x.Submit(fillOrKill(limitOrder(2, Buy, "IBM", 100)))
	assert.True(t, outcome.Matched())
}

func TestSubmit_StopOrderDormancy(t *testing.T) {
	x := createTestExchange()
	x.Submit(withTrigger(limitOrder(1, Sell, "IBM", 1), 1000))
	assert.True(t, x.Resting(1))
	assert.True(t, x.Held(1))

	outcome := x.Submit(limitOrder(2, Buy, "IBM", 100))
	assert.False(t, outcome.Matched(), "stop orders cannot match before any trade")

	// A trade on another ticker does not wake it either.
	x.Submit(limitOrder(3, Sell, "GOOG", 10))
	outcome = x.Submit(marketOrder(4, Buy, "GOOG"))
	require.Len(t, outcome.Agreements, 1)
	assert.True(t, x.Held(1))
}

func TestSubmit_ScenarioC_Cascade(t *testing.T) {
	x := createTestExchange()

	stopBuy := customer(withTrigger(limitOrder(10, Buy, "IBM", 102.92), 102.92), "STOPBUYER")
	stopSell := customer(withTrigger(marketOrder(11, Sell, "IBM"), 102.94), "STOPSELLER")
	assert.False(t, x.Submit(stopBuy).Matched())
	assert.False(t, x.Submit(stopSell).Matched())
	assert.Equal(t, Depth{BuyLimit: 1, SellMarket: 1, Stops: 2}, x.Depth())

	assert.False(t, x.Submit(customer(limitOrder(1, Buy, "IBM", 102.93), "CLIENT1")).Matched())
	outcome := x.Submit(customer(marketOrder(2, Sell, "IBM"), "CLIENT2"))
	require.Len(t, outcome.Agreements, 2)

	assert.Equal(t, "CLIENT1,CLIENT2,IBM,100,102.93,1", outcome.Agreements[0].String())
	assert.Equal(t, "STOPBUYER,STOPSELLER,IBM,100,102.92,1", outcome.Agreements[1].String())

	// Both stop orders are gone from every store.
	assert.Equal(t, Depth{}, x.Depth())
	assert.False(t, x.Resting(10))
	assert.False(t, x.Held(11))
}

func TestSubmit_CascadeOnlyActivatedStops(t *testing.T) {
	x := createTestExchange()

	// Fires at 100 (99 < 100), and a resting sell exists for it.
	x.Submit(withTrigger(marketOrder(10, Buy, "IBM"), 99))
	// Does not fire at 100.
	x.Submit(withTrigger(marketOrder(11, Buy, "IBM"), 150))
	x.Submit(limitOrder(20, Sell, "IBM", 101))
	assert.Equal(t, 2, x.Depth().Stops)

	x.Submit(limitOrder(1, Sell, "IBM", 100))
	outcome := x.Submit(marketOrder(2, Buy, "IBM"))
	require.Len(t, outcome.Agreements, 2)

	// Direct trade at 100 prints first, then the activated stop lifts 20.
	assert.Equal(t, OrderID(1), outcome.Agreements[0].SellOrderID)
	assert.Equal(t, OrderID(10), outcome.Agreements[1].BuyOrderID)
	assert.Equal(t, OrderID(20), outcome.Agreements[1].SellOrderID)
	assert.Equal(t, 101.0, outcome.Agreements[1].Price)

	assert.False(t, x.Held(10))
	assert.False(t, x.Resting(10))
	assert.True(t, x.Held(11))
	assert.True(t, x.Resting(11))
}

func TestSubmit_CascadeChains(t *testing.T) {
	x := createTestExchange()

	// 10 fires at 100 and trades at 120, which then activates 11.
	x.Submit(withTrigger(marketOrder(10, Buy, "IBM"), 99))
	x.Submit(withTrigger(marketOrder(11, Buy, "IBM"), 110))
	x.Submit(limitOrder(20, Sell, "IBM", 120))
	x.Submit(limitOrder(21, Sell, "IBM", 130))

	x.Submit(limitOrder(1, Sell, "IBM", 100))
	outcome := x.Submit(limitOrder(2, Buy, "IBM", 100))
	require.Len(t, outcome.Agreements, 3)

	assert.Equal(t, 100.0, outcome.Agreements[0].Price)
	assert.Equal(t, OrderID(10), outcome.Agreements[1].BuyOrderID)
	assert.Equal(t, 120.0, outcome.Agreements[1].Price)
	assert.Equal(t, OrderID(11), outcome.Agreements[2].BuyOrderID)
	assert.Equal(t, 130.0, outcome.Agreements[2].Price)
	assert.Equal(t, Depth{}, x.Depth())
}

func TestSubmit_MatchedStopLeavesHoldingSet(t *testing.T) {
	x := createTestExchange()
	x.Submit(limitOrder(1, Sell, "IBM", 100))
	x.Submit(marketOrder(2, Buy, "IBM"))

	// Fires immediately against the last price of 100.
	x.Submit(withTrigger(limitOrder(10, Sell, "IBM", 95), 101))
	assert.True(t, x.Held(10))

	// Held order is taken directly from its resting store.
	outcome := x.Submit(marketOrder(3, Buy, "IBM"))
	require.Len(t, outcome.Agreements, 1)
	assert.Equal(t, OrderID(10), outcome.Agreements[0].SellOrderID)
	assert.False(t, x.Held(10))
	assert.Equal(t, Depth{}, x.Depth())
}
