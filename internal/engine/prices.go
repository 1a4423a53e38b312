package engine

import "bourse/internal/common"

// LastPrices maps a ticker to the most recent price it traded at.
type LastPrices struct {
	prices map[string]float64
}

func NewLastPrices() *LastPrices {
	return &LastPrices{prices: make(map[string]float64)}
}

func (p *LastPrices) Update(ticker string, price float64) {
	p.prices[ticker] = price
}

// Get returns the last executed price for ticker, or NoPrice when the
// ticker has never traded.
func (p *LastPrices) Get(ticker string) common.Price {
	price, ok := p.prices[ticker]
	if !ok {
		return common.NoPrice
	}
	return common.SomePrice(price)
}
