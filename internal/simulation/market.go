package simulation

import (
	"fmt"
	"io"

	"bourse/internal/clearing"
	"bourse/internal/ingest"
)

const (
	TickersFile   = "tickers.csv"
	BrokersFile   = "brokers.csv"
	CustomersFile = "customers.csv"
)

// Opener opens a named input file.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// LoadMarket reads the tickers, broker-dealers and customers that exist for
// the whole simulation. Brokers load before customers, which name them.
func LoadMarket(opener Opener, lag int) ([]string, *clearing.House, error) {
	house := clearing.NewHouse(lag)

	var tickers []string
	err := withFile(opener, TickersFile, func(r io.Reader) (err error) {
		tickers, err = ingest.LoadTickers(r)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if err := withFile(opener, BrokersFile, func(r io.Reader) error {
		return ingest.LoadBrokers(r, house)
	}); err != nil {
		return nil, nil, err
	}
	if err := withFile(opener, CustomersFile, func(r io.Reader) error {
		return ingest.LoadCustomers(r, house)
	}); err != nil {
		return nil, nil, err
	}
	return tickers, house, nil
}

func withFile(opener Opener, name string, load func(io.Reader) error) error {
	file, err := opener.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := load(file); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}
