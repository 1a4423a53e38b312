package clearing

import (
	"errors"
	"fmt"
	"math"

	"bourse/internal/common"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const DefaultSettlementLag = 2

var (
	ErrUnknownBroker      = errors.New("unknown broker")
	ErrUnknownCustomer    = errors.New("unknown customer")
	ErrDuplicateEntity    = errors.New("duplicate entity")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Customer trades through an executing broker and keeps its account in
// custody at a prime broker.
type Customer struct {
	Name      string
	Executing *BrokerDealer
	Prime     *BrokerDealer
}

func (c *Customer) account() *Account {
	account, _ := c.Prime.CustomerAccount(c.Name)
	return account
}

// House registers brokers and customers, answers inventory questions for
// order validation and settles agreements.
type House struct {
	brokers   map[string]*BrokerDealer
	customers map[string]*Customer
	lag       int
}

func NewHouse(lag int) *House {
	return &House{
		brokers:   make(map[string]*BrokerDealer),
		customers: make(map[string]*Customer),
		lag:       lag,
	}
}

func (h *House) SettlementLag() int { return h.lag }

func (h *House) AddBroker(name string, cash decimal.Decimal, holdings map[string]int64) (*BrokerDealer, error) {
	if _, ok := h.brokers[name]; ok {
		return nil, fmt.Errorf("%w: broker %s", ErrDuplicateEntity, name)
	}
	broker := NewBrokerDealer(name, NewAccount(cash, holdings))
	h.brokers[name] = broker
	log.Debug().Str("broker", name).Msg("broker dealer added")
	return broker, nil
}

func (h *House) Broker(name string) (*BrokerDealer, bool) {
	broker, ok := h.brokers[name]
	return broker, ok
}

// AddCustomer opens the customer's account at its prime broker.
func (h *House) AddCustomer(name, executing, prime string, cash decimal.Decimal, holdings map[string]int64) (*Customer, error) {
	if _, ok := h.customers[name]; ok {
		return nil, fmt.Errorf("%w: customer %s", ErrDuplicateEntity, name)
	}
	executingBroker, ok := h.brokers[executing]
	if !ok {
		return nil, fmt.Errorf("%w: %s (executing broker of %s)", ErrUnknownBroker, executing, name)
	}
	primeBroker, ok := h.brokers[prime]
	if !ok {
		return nil, fmt.Errorf("%w: %s (prime broker of %s)", ErrUnknownBroker, prime, name)
	}

	customer := &Customer{Name: name, Executing: executingBroker, Prime: primeBroker}
	primeBroker.openAccount(name, NewAccount(cash, holdings))
	h.customers[name] = customer
	log.Debug().Str("customer", name).Str("prime", prime).Str("executing", executing).Msg("customer added")
	return customer, nil
}

func (h *House) Customer(name string) (*Customer, bool) {
	customer, ok := h.customers[name]
	return customer, ok
}

// Account returns the custody account of a customer.
func (h *House) Account(name string) (*Account, bool) {
	customer, ok := h.customers[name]
	if !ok {
		return nil, false
	}
	return customer.account(), true
}

func (h *House) KnownCustomer(name string) bool {
	_, ok := h.customers[name]
	return ok
}

func (h *House) SufficientCash(name string, amount decimal.Decimal) bool {
	account, ok := h.Account(name)
	return ok && account.Cash.GreaterThanOrEqual(amount)
}

func (h *House) SufficientShares(name, ticker string, qty uint64) bool {
	account, ok := h.Account(name)
	return ok && qty <= math.MaxInt64 && account.Shares(ticker) >= int64(qty)
}

// Due reports whether an agreement should settle on day.
func (h *House) Due(agreement common.Agreement, day int) bool {
	return agreement.Date+h.lag <= day
}

// Settle clears one agreement. The buyer pays the notional plus its fees,
// the seller receives the notional less its fees, fees are paid to the
// brokers and shares move from seller to buyer.
func (h *House) Settle(agreement common.Agreement) (Settlement, error) {
	buyer, ok := h.customers[agreement.Buyer]
	if !ok {
		return Settlement{}, fmt.Errorf("%w: buyer %s", ErrUnknownCustomer, agreement.Buyer)
	}
	seller, ok := h.customers[agreement.Seller]
	if !ok {
		return Settlement{}, fmt.Errorf("%w: seller %s", ErrUnknownCustomer, agreement.Seller)
	}

	notional := decimal.NewFromFloat(agreement.Price).Mul(decimal.NewFromInt(int64(agreement.Quantity)))
	qty := int64(agreement.Quantity)

	// Shares first: a failed delivery must not leave cash half moved.
	if err := seller.account().RemoveShares(agreement.Ticker, qty); err != nil {
		return Settlement{}, fmt.Errorf("settle %s: %w", agreement.UUID, err)
	}
	buyer.account().AddShares(agreement.Ticker, qty)

	buyCustodial := buyer.Prime.custodialFee(notional)
	buyAgency := buyer.Executing.agencyFee(notional)
	buyer.account().RemoveCash(notional.Add(buyCustodial).Add(buyAgency))
	buyer.Prime.collect(buyCustodial)
	buyer.Executing.collect(buyAgency)

	sellCustodial := seller.Prime.custodialFee(notional)
	sellAgency := seller.Executing.agencyFee(notional)
	received := notional.Sub(sellCustodial).Sub(sellAgency)
	seller.account().AddCash(received)
	seller.Prime.collect(sellCustodial)
	seller.Executing.collect(sellAgency)

	settlement := Settlement{
		Buyer:          buyer.Name,
		Ticker:         agreement.Ticker,
		Quantity:       agreement.Quantity,
		BuyPrimeFee:    Fee{Broker: buyer.Prime.Name, Amount: buyCustodial},
		BuyAgencyFee:   Fee{Broker: buyer.Executing.Name, Amount: buyAgency},
		Seller:         seller.Name,
		SellerReceived: received,
		SellPrimeFee:   Fee{Broker: seller.Prime.Name, Amount: sellCustodial},
		SellAgencyFee:  Fee{Broker: seller.Executing.Name, Amount: sellAgency},
		Date:           agreement.Date + h.lag,
	}

	log.Info().
		Str("uuid", agreement.UUID).
		Str("settlement", settlement.String()).
		Msg("agreement settled")
	return settlement, nil
}
