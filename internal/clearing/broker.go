package clearing

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	DefaultPrimeBrokerFee     = decimal.RequireFromString("0.10")
	DefaultExecutingBrokerFee = decimal.RequireFromString("0.05")
)

// BrokerDealer acts as prime broker (custody of customer accounts) and as
// executing broker. Fees earned in either role go to its own account.
type BrokerDealer struct {
	Name               string
	Account            *Account
	PrimeBrokerFee     decimal.Decimal // Custodial fee rate on notional
	ExecutingBrokerFee decimal.Decimal // Agency fee rate on notional
	customers          map[string]*Account
}

func NewBrokerDealer(name string, account *Account) *BrokerDealer {
	return &BrokerDealer{
		Name:               name,
		Account:            account,
		PrimeBrokerFee:     DefaultPrimeBrokerFee,
		ExecutingBrokerFee: DefaultExecutingBrokerFee,
		customers:          make(map[string]*Account),
	}
}

func (b *BrokerDealer) openAccount(customer string, account *Account) {
	b.customers[customer] = account
}

// CustomerAccount returns the account held in custody for customer.
func (b *BrokerDealer) CustomerAccount(customer string) (*Account, bool) {
	account, ok := b.customers[customer]
	return account, ok
}

func (b *BrokerDealer) custodialFee(notional decimal.Decimal) decimal.Decimal {
	return notional.Mul(b.PrimeBrokerFee)
}

func (b *BrokerDealer) agencyFee(notional decimal.Decimal) decimal.Decimal {
	return notional.Mul(b.ExecutingBrokerFee)
}

func (b *BrokerDealer) collect(fee decimal.Decimal) {
	log.Debug().Str("broker", b.Name).Str("fee", fee.StringFixed(2)).Msg("fee collected")
	b.Account.AddCash(fee)
}
