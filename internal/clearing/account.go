package clearing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account is a cash and share inventory.
type Account struct {
	Cash     decimal.Decimal
	Holdings map[string]int64
}

func NewAccount(cash decimal.Decimal, holdings map[string]int64) *Account {
	account := &Account{Cash: cash, Holdings: make(map[string]int64, len(holdings))}
	for ticker, qty := range holdings {
		account.Holdings[ticker] = qty
	}
	return account
}

func (a *Account) AddCash(cash decimal.Decimal)    { a.Cash = a.Cash.Add(cash) }
func (a *Account) RemoveCash(cash decimal.Decimal) { a.Cash = a.Cash.Sub(cash) }

func (a *Account) Shares(ticker string) int64 { return a.Holdings[ticker] }

func (a *Account) AddShares(ticker string, qty int64) { a.Holdings[ticker] += qty }

func (a *Account) RemoveShares(ticker string, qty int64) error {
	held := a.Holdings[ticker]
	if held < qty {
		return fmt.Errorf("%w: %s holds %d, delivering %d", ErrInsufficientShares, ticker, held, qty)
	}
	a.Holdings[ticker] = held - qty
	return nil
}
