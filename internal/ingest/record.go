package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bourse/internal/common"
)

// Columns of an order record, in file order.
const (
	colOrderID = iota
	colCustomer
	colDirection
	colQuantity
	colTicker
	colType
	colLimitPrice
	colTimeInForce
	colTriggerPrice
	recordFields
)

// nullPrice marks an absent price.
const nullPrice = "NULL"

var (
	ErrFieldCount      = errors.New("wrong number of fields")
	ErrInvalidOrderID  = errors.New("invalid order id")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrMissingPrice    = errors.New("missing price")
	ErrUnexpectedPrice = errors.New("unexpected price")
)

// ParseRecord turns one order row into an order. The row must be complete
// and internally consistent, but nothing is checked against the exchange's
// participants; see Validator.
func ParseRecord(fields []string) (common.Order, error) {
	if len(fields) != recordFields {
		return common.Order{}, fmt.Errorf("%w: exactly %d required, %d given", ErrFieldCount, recordFields, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	id, err := strconv.ParseUint(fields[colOrderID], 10, 64)
	if err != nil {
		return common.Order{}, fmt.Errorf("%w: %q", ErrInvalidOrderID, fields[colOrderID])
	}
	side, err := common.ParseSide(fields[colDirection])
	if err != nil {
		return common.Order{}, err
	}
	quantity, err := strconv.ParseUint(fields[colQuantity], 10, 64)
	if err != nil || !validQuantity(quantity) {
		return common.Order{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, fields[colQuantity])
	}
	orderType, stop, err := ParseOrderType(fields[colType])
	if err != nil {
		return common.Order{}, err
	}
	limitPrice, err := parsePrice(fields[colLimitPrice])
	if err != nil {
		return common.Order{}, fmt.Errorf("limit price: %w", err)
	}
	tif, err := common.ParseTimeInForce(fields[colTimeInForce])
	if err != nil {
		return common.Order{}, err
	}
	triggerPrice, err := parsePrice(fields[colTriggerPrice])
	if err != nil {
		return common.Order{}, fmt.Errorf("trigger price: %w", err)
	}

	switch {
	case orderType == common.LimitOrder && !limitPrice.IsSet():
		return common.Order{}, fmt.Errorf("%w: limit orders need a limit price", ErrMissingPrice)
	case orderType == common.MarketOrder && limitPrice.IsSet():
		return common.Order{}, fmt.Errorf("%w: market orders carry no limit price", ErrUnexpectedPrice)
	case stop && !triggerPrice.IsSet():
		return common.Order{}, fmt.Errorf("%w: %s orders need a trigger price", ErrMissingPrice, fields[colType])
	}

	return common.Order{
		ID:           common.OrderID(id),
		Customer:     fields[colCustomer],
		Side:         side,
		Quantity:     quantity,
		Ticker:       fields[colTicker],
		OrderType:    orderType,
		LimitPrice:   limitPrice,
		TimeInForce:  tif,
		TriggerPrice: triggerPrice,
	}, nil
}

// ParseOrderType accepts LIMIT, MARKET and their STOP- variants. The stop
// result reports whether a stop variant was named.
func ParseOrderType(s string) (orderType common.OrderType, stop bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LIMIT":
		return common.LimitOrder, false, nil
	case "MARKET":
		return common.MarketOrder, false, nil
	case "STOP-LIMIT":
		return common.LimitOrder, true, nil
	case "STOP-MARKET":
		return common.MarketOrder, true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", common.ErrUnknownOrderType, s)
}

func parsePrice(s string) (common.Price, error) {
	if strings.EqualFold(s, nullPrice) || s == "" {
		return common.NoPrice, nil
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil || !validPrice(price) {
		return common.NoPrice, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return common.SomePrice(price), nil
}

// validPrice rejects zero, negative and non-finite prices.
func validPrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0
}

// validQuantity bounds quantities to what account holdings can represent.
func validQuantity(quantity uint64) bool {
	return quantity > 0 && quantity <= math.MaxInt64
}
