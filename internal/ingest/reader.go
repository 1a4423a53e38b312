package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"bourse/internal/common"

	"github.com/rs/zerolog/log"
)

// Rejection describes an order row that could not be admitted.
type Rejection struct {
	Line int
	Err  error
}

func (r Rejection) Error() string { return fmt.Sprintf("line %d: %v", r.Line, r.Err) }

func (r Rejection) Unwrap() error { return r.Err }

// newReader returns a CSV reader over r positioned after the header row.
func newReader(r io.Reader) (*csv.Reader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return reader, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	return reader, nil
}

// ReadOrders reads an orders file. Rows that fail to parse or validate are
// returned as rejections and do not stop the read. A nil validator only
// parses.
func ReadOrders(r io.Reader, validator *Validator) ([]common.Order, []Rejection, error) {
	reader, err := newReader(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		orders     []common.Order
		rejections []Rejection
	)
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rejections = append(rejections, Rejection{Line: line, Err: err})
				continue
			}
			return orders, rejections, fmt.Errorf("read orders: %w", err)
		}

		order, err := ParseRecord(fields)
		if err == nil && validator != nil {
			err = validator.Check(order)
		}
		if err != nil {
			log.Error().Err(err).Int("line", line).Msg("order not processed")
			rejections = append(rejections, Rejection{Line: line, Err: err})
			continue
		}
		orders = append(orders, order)
	}
	return orders, rejections, nil
}
