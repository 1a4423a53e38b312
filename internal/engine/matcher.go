package engine

import (
	"bourse/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func newAgreementUUID() string { return uuid.New().String() }

// match runs one order through routing, agreement and cascade. It returns
// the direct agreement followed by any cascade agreements, or nil.
func (x *Exchange) match(order common.Order) []common.Agreement {
	matched, ok := x.route(order)
	if !ok {
		x.noMatch(order)
		return nil
	}

	agreement := x.agree(order, matched)
	agreements := []common.Agreement{agreement}
	return append(agreements, x.cascade()...)
}

// route looks for a counterparty. Limit orders try the opposite market
// queue before the opposite limit list. Market orders only try the opposite
// limit list, as two market orders have no price to trade at.
func (x *Exchange) route(order common.Order) (common.Order, bool) {
	switch order.OrderType {
	case common.LimitOrder:
		if matched, ok := x.oppositeMarketQueue(order.Side).FindMatch(order); ok {
			log.Debug().Uint64("id", uint64(order.ID)).Msg("matched in market order queue")
			return matched, true
		}
		fallthrough
	case common.MarketOrder:
		if matched, ok := x.oppositeLimitList(order.Side).FindMatch(order); ok {
			log.Debug().Uint64("id", uint64(order.ID)).Msg("matched in limit order list")
			return matched, true
		}
	}
	return common.Order{}, false
}

// agree records a trade between the incoming order and the resting order it
// matched, and publishes the new last executed price to every store.
func (x *Exchange) agree(incoming, matched common.Order) common.Agreement {
	// A priced resting order sets the price, otherwise the incoming one does.
	price, _ := matched.LimitPrice.Or(incoming.LimitPrice).Get()

	buy, sell := incoming, matched
	if incoming.Side == common.Sell {
		buy, sell = matched, incoming
	}

	agreement := common.Agreement{
		UUID:        x.newUUID(),
		Buyer:       buy.Customer,
		Seller:      sell.Customer,
		Ticker:      incoming.Ticker,
		Quantity:    incoming.Quantity,
		Price:       price,
		Date:        x.day,
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
	}

	x.retire(incoming)
	x.retire(matched)
	x.updateLastExecutedPrice(incoming.Ticker, price)

	log.Info().
		Str("uuid", agreement.UUID).
		Str("agreement", agreement.String()).
		Msg("agreement made")
	return agreement
}

// retire removes a traded order from the holding set and from its resting
// store. An incoming probe for a held stop order still has its resting copy.
func (x *Exchange) retire(order common.Order) {
	if !x.stopOrders.Remove(order.ID) {
		return
	}
	switch order.OrderType {
	case common.LimitOrder:
		x.sameLimitList(order.Side).Remove(order.ID)
	case common.MarketOrder:
		x.sameMarketQueue(order.Side).Remove(order.ID)
	}
}

// cascade re-evaluates the held stop orders after a trade. The holding set
// is snapshotted first; orders retired by a nested match are skipped. Every
// match retires at least one held order, so the cascade terminates.
func (x *Exchange) cascade() []common.Agreement {
	held := x.stopOrders.Snapshot()
	if len(held) == 0 {
		return nil
	}
	log.Debug().Int("held", len(held)).Msg("checking for newly activated stop orders")

	var agreements []common.Agreement
	for _, stop := range held {
		if !x.stopOrders.Contains(stop.ID) {
			continue
		}
		agreements = append(agreements, x.match(stop.Probe())...)
	}
	return agreements
}

// noMatch admits an unmatched order. Fill-or-kill orders leave no trace.
func (x *Exchange) noMatch(order common.Order) {
	if order.TimeInForce == common.FillOrKill {
		return
	}

	switch order.OrderType {
	case common.LimitOrder:
		x.sameLimitList(order.Side).AddOrderToList(order)
	case common.MarketOrder:
		x.sameMarketQueue(order.Side).Enqueue(order)
	}
	if order.IsStop() {
		x.stopOrders.Add(order)
	}

	log.Debug().
		Uint64("id", uint64(order.ID)).
		Bool("stop", order.IsStop()).
		Int("buy limit", x.buyLimitOrders.Size()).
		Int("sell limit", x.sellLimitOrders.Size()).
		Int("buy market", x.buyMarketOrders.Size()).
		Int("sell market", x.sellMarketOrders.Size()).
		Msg("order rests on exchange")
}

// updateLastExecutedPrice writes the price into all four store tables
// together.
func (x *Exchange) updateLastExecutedPrice(ticker string, price float64) {
	x.buyMarketOrders.UpdateLastExecutedPrice(ticker, price)
	x.sellMarketOrders.UpdateLastExecutedPrice(ticker, price)
	x.buyLimitOrders.UpdateLastExecutedPrice(ticker, price)
	x.sellLimitOrders.UpdateLastExecutedPrice(ticker, price)
	log.Debug().Str("ticker", ticker).Float64("price", price).Msg("last executed price updated")
}

func (x *Exchange) oppositeMarketQueue(side common.Side) *MarketQueue {
	return x.sameMarketQueue(side.Opposite())
}

func (x *Exchange) oppositeLimitList(side common.Side) *LimitList {
	return x.sameLimitList(side.Opposite())
}

func (x *Exchange) sameMarketQueue(side common.Side) *MarketQueue {
	if side == common.Buy {
		return x.buyMarketOrders
	}
	return x.sellMarketOrders
}

func (x *Exchange) sameLimitList(side common.Side) *LimitList {
	if side == common.Buy {
		return x.buyLimitOrders
	}
	return x.sellLimitOrders
}
