package engine

import (
	"bourse/internal/common"

	"github.com/rs/zerolog/log"
)

// Outcome is the result of one submission. An outcome without agreements
// means the order did not match.
type Outcome struct {
	Agreements []common.Agreement
}

func (o Outcome) Matched() bool { return len(o.Agreements) > 0 }

// Exchange owns the resting stores, the stop order holding set and the
// current trading day. It is not safe for concurrent use; see Sequencer.
type Exchange struct {
	buyMarketOrders  *MarketQueue
	sellMarketOrders *MarketQueue
	buyLimitOrders   *LimitList
	sellLimitOrders  *LimitList
	stopOrders       *HoldingSet
	day              int

	// newUUID generates agreement ids.
	newUUID func() string
}

func New() *Exchange {
	var trigger TriggerEvaluator
	return &Exchange{
		buyMarketOrders:  NewMarketQueue(common.Buy, trigger),
		sellMarketOrders: NewMarketQueue(common.Sell, trigger),
		buyLimitOrders:   NewLimitList(common.Buy, trigger),
		sellLimitOrders:  NewLimitList(common.Sell, trigger),
		stopOrders:       NewHoldingSet(),
		day:              1,
		newUUID:          newAgreementUUID,
	}
}

// Submit matches an order against the resting stores. Any stop orders the
// resulting trade activates are matched in the same call.
func (x *Exchange) Submit(order common.Order) Outcome {
	log.Debug().
		Uint64("id", uint64(order.ID)).
		Str("side", order.Side.String()).
		Str("type", order.OrderType.String()).
		Str("ticker", order.Ticker).
		Msg("order submitted")

	agreements := x.match(order)
	if len(agreements) > 0 {
		log.Info().
			Uint64("id", uint64(order.ID)).
			Int("agreements", len(agreements)).
			Msg("order matched")
	}
	return Outcome{Agreements: agreements}
}

func (x *Exchange) Day() int { return x.day }

// AdvanceDay moves the exchange onto the next trading day and returns it.
func (x *Exchange) AdvanceDay() int {
	x.day++
	log.Info().Int("day", x.day).Msg("trading day advanced")
	return x.day
}

// LastExecutedPrice returns the most recent trade price of ticker.
func (x *Exchange) LastExecutedPrice(ticker string) common.Price {
	return x.buyLimitOrders.LastExecutedPrice(ticker)
}

// Depth summarises the number of orders in each store.
type Depth struct {
	BuyMarket  int
	SellMarket int
	BuyLimit   int
	SellLimit  int
	Stops      int
}

func (x *Exchange) Depth() Depth {
	return Depth{
		BuyMarket:  x.buyMarketOrders.Size(),
		SellMarket: x.sellMarketOrders.Size(),
		BuyLimit:   x.buyLimitOrders.Size(),
		SellLimit:  x.sellLimitOrders.Size(),
		Stops:      x.stopOrders.Size(),
	}
}

// Resting reports whether an order is in any resting store.
func (x *Exchange) Resting(id common.OrderID) bool {
	return x.buyMarketOrders.Contains(id) || x.sellMarketOrders.Contains(id) ||
		x.buyLimitOrders.Contains(id) || x.sellLimitOrders.Contains(id)
}

// Held reports whether an order is in the stop order holding set.
func (x *Exchange) Held(id common.OrderID) bool { return x.stopOrders.Contains(id) }
