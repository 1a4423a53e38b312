package common

import (
	"strconv"
	"strings"
)

// Agreement accounts for the two parties who matched. Field order follows
// the row the settlement side expects: buyer, seller, ticker, quantity,
// price, date.
type Agreement struct {
	UUID        string  `json:"uuid"`
	Buyer       string  `json:"buyer"`
	Seller      string  `json:"seller"`
	Ticker      string  `json:"ticker"`
	Quantity    uint64  `json:"quantity"`
	Price       float64 `json:"price"`
	Date        int     `json:"date"`
	BuyOrderID  OrderID `json:"buy_order_id"`
	SellOrderID OrderID `json:"sell_order_id"`
}

// Fields returns the agreement as its six collaborator columns.
func (a Agreement) Fields() []string {
	return []string{
		a.Buyer,
		a.Seller,
		a.Ticker,
		strconv.FormatUint(a.Quantity, 10),
		FormatPrice(a.Price),
		strconv.Itoa(a.Date),
	}
}

func (a Agreement) String() string {
	return strings.Join(a.Fields(), ",")
}
