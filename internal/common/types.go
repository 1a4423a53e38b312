package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSide        = errors.New("unknown side")
	ErrUnknownOrderType   = errors.New("unknown order type")
	ErrUnknownTimeInForce = errors.New("unknown time in force")
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Opposite returns the side an order of this side trades against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) Valid() bool { return s == Buy || s == Sell }

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

type OrderType int

const (
	// Limit orders are an order to buy or sell a security at a specified
	// price or better. Limit orders rest until a counterparty arrives.
	LimitOrder OrderType = iota
	// Market orders carry no price and trade at the counterparty's limit.
	MarketOrder
)

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "LIMIT"
	case MarketOrder:
		return "MARKET"
	}
	return fmt.Sprintf("OrderType(%d)", int(t))
}

func (t OrderType) Valid() bool { return t == LimitOrder || t == MarketOrder }

type TimeInForce int

const (
	// GoodTillCancelled orders rest until matched. There is no cancellation,
	// so in practice they rest until matched or the simulation ends.
	GoodTillCancelled TimeInForce = iota
	// FillOrKill orders match on arrival or are discarded.
	FillOrKill
)

func (tif TimeInForce) String() string {
	switch tif {
	case GoodTillCancelled:
		return "GTC"
	case FillOrKill:
		return "FOK"
	}
	return fmt.Sprintf("TimeInForce(%d)", int(tif))
}

func (tif TimeInForce) Valid() bool { return tif == GoodTillCancelled || tif == FillOrKill }

func ParseTimeInForce(s string) (TimeInForce, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GTC":
		return GoodTillCancelled, nil
	case "FOK":
		return FillOrKill, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTimeInForce, s)
}
