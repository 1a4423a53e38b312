package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bourse/internal/clearing"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrInvalidEntity = errors.New("invalid entity record")

// LoadTickers reads the ticker whitelist, one symbol per row.
func LoadTickers(r io.Reader) ([]string, error) {
	reader, err := newReader(r)
	if err != nil {
		return nil, err
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read tickers: %w", err)
	}

	tickers := make([]string, 0, len(records))
	for _, fields := range records {
		if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
			continue
		}
		ticker := strings.TrimSpace(fields[0])
		log.Debug().Str("ticker", ticker).Msg("ticker added")
		tickers = append(tickers, ticker)
	}
	return tickers, nil
}

// LoadBrokers reads rows of `name,cash,holdings` into house.
func LoadBrokers(r io.Reader, house *clearing.House) error {
	reader, err := newReader(r)
	if err != nil {
		return err
	}
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read brokers: %w", err)
	}

	for i, fields := range records {
		if len(fields) != 3 {
			return fmt.Errorf("%w: broker row %d has %d fields", ErrInvalidEntity, i+2, len(fields))
		}
		cash, holdings, err := parseInventory(fields[1], fields[2])
		if err != nil {
			return fmt.Errorf("broker row %d: %w", i+2, err)
		}
		if _, err := house.AddBroker(strings.TrimSpace(fields[0]), cash, holdings); err != nil {
			return err
		}
	}
	return nil
}

// LoadCustomers reads rows of
// `name,executing broker,prime broker,cash,holdings` into house. Brokers
// must already be loaded.
func LoadCustomers(r io.Reader, house *clearing.House) error {
	reader, err := newReader(r)
	if err != nil {
		return err
	}
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read customers: %w", err)
	}

	for i, fields := range records {
		if len(fields) != 5 {
			return fmt.Errorf("%w: customer row %d has %d fields", ErrInvalidEntity, i+2, len(fields))
		}
		cash, holdings, err := parseInventory(fields[3], fields[4])
		if err != nil {
			return fmt.Errorf("customer row %d: %w", i+2, err)
		}
		_, err = house.AddCustomer(
			strings.TrimSpace(fields[0]),
			strings.TrimSpace(fields[1]),
			strings.TrimSpace(fields[2]),
			cash,
			holdings,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// parseInventory parses a cash amount and a holdings list such as
// "IBM:100 GOOG:50".
func parseInventory(cashField, holdingsField string) (decimal.Decimal, map[string]int64, error) {
	cash, err := decimal.NewFromString(strings.TrimSpace(cashField))
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("%w: cash %q", ErrInvalidEntity, cashField)
	}

	holdings := make(map[string]int64)
	for _, pair := range strings.Fields(holdingsField) {
		ticker, qty, ok := strings.Cut(pair, ":")
		if !ok {
			return decimal.Zero, nil, fmt.Errorf("%w: holding %q", ErrInvalidEntity, pair)
		}
		n, err := strconv.ParseInt(qty, 10, 64)
		if err != nil || n < 0 {
			return decimal.Zero, nil, fmt.Errorf("%w: holding %q", ErrInvalidEntity, pair)
		}
		holdings[ticker] = n
	}
	return cash, holdings, nil
}
