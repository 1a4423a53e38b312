package ingest

import (
	"errors"
	"fmt"

	"bourse/internal/common"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownTicker      = errors.New("unrecognised ticker")
	ErrUnknownCustomer    = errors.New("unrecognised customer")
	ErrDuplicateOrderID   = errors.New("duplicate order id")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidOrder       = errors.New("invalid order")
)

// Directory answers questions about participants and their inventories.
type Directory interface {
	KnownCustomer(name string) bool
	SufficientCash(name string, amount decimal.Decimal) bool
	SufficientShares(name, ticker string, qty uint64) bool
}

// Validator admits orders onto the exchange. It owns the ticker whitelist
// and the set of order ids already used.
type Validator struct {
	tickers   map[string]struct{}
	directory Directory
	seen      map[common.OrderID]struct{}
}

func NewValidator(tickers []string, directory Directory) *Validator {
	v := &Validator{
		tickers:   make(map[string]struct{}, len(tickers)),
		directory: directory,
		seen:      make(map[common.OrderID]struct{}),
	}
	for _, ticker := range tickers {
		v.tickers[ticker] = struct{}{}
	}
	return v
}

// Check validates an order. Only orders that pass every check use up their
// id, so a rejected order's id may be sent again.
func (v *Validator) Check(order common.Order) error {
	if err := checkShape(order); err != nil {
		return err
	}
	if _, ok := v.seen[order.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateOrderID, order.ID)
	}
	if _, ok := v.tickers[order.Ticker]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTicker, order.Ticker)
	}
	if !v.directory.KnownCustomer(order.Customer) {
		return fmt.Errorf("%w: %q", ErrUnknownCustomer, order.Customer)
	}

	switch order.Side {
	case common.Buy:
		required := decimal.Zero
		if price, ok := order.LimitPrice.Get(); ok {
			required = decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(order.Quantity)))
		}
		if !v.directory.SufficientCash(order.Customer, required) {
			return fmt.Errorf("%w: %s needs %s", ErrInsufficientCash, order.Customer, required.StringFixed(2))
		}
	case common.Sell:
		if !v.directory.SufficientShares(order.Customer, order.Ticker, order.Quantity) {
			return fmt.Errorf("%w: %s needs %d %s", ErrInsufficientShares, order.Customer, order.Quantity, order.Ticker)
		}
	}

	v.seen[order.ID] = struct{}{}
	return nil
}

// checkShape rejects orders that could not have come out of ParseRecord,
// such as those decoded from the wire.
func checkShape(order common.Order) error {
	switch {
	case !order.Side.Valid():
		return fmt.Errorf("%w: %v", common.ErrUnknownSide, order.Side)
	case !order.OrderType.Valid():
		return fmt.Errorf("%w: %v", common.ErrUnknownOrderType, order.OrderType)
	case !order.TimeInForce.Valid():
		return fmt.Errorf("%w: %v", common.ErrUnknownTimeInForce, order.TimeInForce)
	case !validQuantity(order.Quantity):
		return fmt.Errorf("%w: %w: %d", ErrInvalidOrder, ErrInvalidQuantity, order.Quantity)
	case order.OrderType == common.LimitOrder && !order.LimitPrice.IsSet():
		return fmt.Errorf("%w: %w", ErrInvalidOrder, ErrMissingPrice)
	case order.OrderType == common.MarketOrder && order.LimitPrice.IsSet():
		return fmt.Errorf("%w: %w", ErrInvalidOrder, ErrUnexpectedPrice)
	}
	for _, p := range []common.Price{order.LimitPrice, order.TriggerPrice} {
		if price, ok := p.Get(); ok && !validPrice(price) {
			return fmt.Errorf("%w: %w", ErrInvalidOrder, ErrInvalidPrice)
		}
	}
	return nil
}
