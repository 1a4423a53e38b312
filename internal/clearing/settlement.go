package clearing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fee is an amount owed to a named broker.
type Fee struct {
	Broker string
	Amount decimal.Decimal
}

func (f Fee) String() string { return f.Broker + ":" + f.Amount.StringFixed(2) }

// Settlement records how an agreement was cleared.
type Settlement struct {
	Buyer          string
	Ticker         string
	Quantity       uint64
	BuyPrimeFee    Fee
	BuyAgencyFee   Fee
	Seller         string
	SellerReceived decimal.Decimal
	SellPrimeFee   Fee
	SellAgencyFee  Fee
	Date           int
}

// Fields returns the settlement row columns.
func (s Settlement) Fields() []string {
	return []string{
		s.Buyer,
		s.Ticker,
		strconv.FormatUint(s.Quantity, 10),
		s.BuyPrimeFee.String(),
		s.BuyAgencyFee.String(),
		s.Seller,
		s.SellerReceived.StringFixed(2),
		s.SellPrimeFee.String(),
		s.SellAgencyFee.String(),
		strconv.Itoa(s.Date),
	}
}

func (s Settlement) String() string {
	return strings.Join(s.Fields(), ",")
}
