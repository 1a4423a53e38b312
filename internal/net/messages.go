package net

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	. "bourse/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short")
	ErrFrameTooLarge      = errors.New("frame exceeds maximum size")
	ErrTickerTooLong      = errors.New("ticker longer than 4 bytes")
	ErrCustomerTooLong    = errors.New("customer name longer than 255 bytes")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	EndOfDay
)

func (t MessageType) String() string {
	switch t {
	case Heartbeat:
		return "HEARTBEAT"
	case NewOrder:
		return "NEW_ORDER"
	case EndOfDay:
		return "END_OF_DAY"
	}
	return fmt.Sprintf("MessageType(%d)", uint16(t))
}

type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
	DayReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants
const (
	MaxFrameSize             = 4 * 1024
	frameHeaderLen           = 4
	BaseMessageHeaderLen     = 2
	NewOrderMessageHeaderLen = 8 + 1 + 1 + 1 + 1 + 4 + 8 + 8 + 8 + 1
)

// Presence flags for the optional prices of a new order.
const (
	hasLimitPrice uint8 = 1 << iota
	hasTriggerPrice
)

// Generic message type, also used for messages without a body.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

// ParseMessage decodes one frame body.
func ParseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, fmt.Errorf("%w: no header", ErrMessageTooShort)
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(msg)
	case EndOfDay, Heartbeat:
		return BaseMessage{TypeOf: typeOf}, nil
	default:
		return BaseMessage{}, fmt.Errorf("%w: %d", ErrInvalidMessageType, typeOf)
	}
}

type NewOrderMessage struct {
	BaseMessage
	OrderID      uint64      // 8 bytes
	Side         Side        // 1 byte
	OrderType    OrderType   // 1 byte
	TimeInForce  TimeInForce // 1 byte
	Flags        uint8       // 1 byte
	Ticker       string      // 4 bytes, zero padded
	Quantity     uint64      // 8 bytes
	LimitPrice   float64     // 8 bytes
	TriggerPrice float64     // 8 bytes
	CustomerLen  uint8       // 1 byte
	Customer     string      // n bytes
}

func (o NewOrderMessage) Order() Order {
	order := Order{
		ID:          OrderID(o.OrderID),
		Customer:    o.Customer,
		Side:        o.Side,
		Quantity:    o.Quantity,
		Ticker:      o.Ticker,
		OrderType:   o.OrderType,
		TimeInForce: o.TimeInForce,
	}
	if o.Flags&hasLimitPrice != 0 {
		order.LimitPrice = SomePrice(o.LimitPrice)
	}
	if o.Flags&hasTriggerPrice != 0 {
		order.TriggerPrice = SomePrice(o.TriggerPrice)
	}
	return order
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m.OrderID = binary.BigEndian.Uint64(msg[0:8])
	m.Side = Side(msg[8])
	m.OrderType = OrderType(msg[9])
	m.TimeInForce = TimeInForce(msg[10])
	m.Flags = msg[11]
	m.Ticker = strings.TrimRight(string(msg[12:16]), "\x00")
	m.Quantity = binary.BigEndian.Uint64(msg[16:24])
	m.LimitPrice = math.Float64frombits(binary.BigEndian.Uint64(msg[24:32]))
	m.TriggerPrice = math.Float64frombits(binary.BigEndian.Uint64(msg[32:40]))
	m.CustomerLen = msg[40]

	if len(msg) < NewOrderMessageHeaderLen+int(m.CustomerLen) {
		return NewOrderMessage{}, fmt.Errorf("%w: customer name", ErrMessageTooShort)
	}
	m.Customer = string(msg[41 : 41+int(m.CustomerLen)])

	return m, nil
}

// EncodeNewOrder builds the frame body for an order.
func EncodeNewOrder(order Order) ([]byte, error) {
	if len(order.Ticker) > 4 {
		return nil, fmt.Errorf("%w: %q", ErrTickerTooLong, order.Ticker)
	}
	if len(order.Customer) > math.MaxUint8 {
		return nil, ErrCustomerTooLong
	}

	buf := make([]byte, BaseMessageHeaderLen+NewOrderMessageHeaderLen+len(order.Customer))
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	body := buf[2:]

	var flags uint8
	limit, ok := order.LimitPrice.Get()
	if ok {
		flags |= hasLimitPrice
	}
	trigger, ok := order.TriggerPrice.Get()
	if ok {
		flags |= hasTriggerPrice
	}

	binary.BigEndian.PutUint64(body[0:8], uint64(order.ID))
	body[8] = byte(order.Side)
	body[9] = byte(order.OrderType)
	body[10] = byte(order.TimeInForce)
	body[11] = flags
	copy(body[12:16], order.Ticker)
	binary.BigEndian.PutUint64(body[16:24], order.Quantity)
	binary.BigEndian.PutUint64(body[24:32], math.Float64bits(limit))
	binary.BigEndian.PutUint64(body[32:40], math.Float64bits(trigger))
	body[40] = uint8(len(order.Customer))
	copy(body[41:], order.Customer)
	return buf, nil
}

// EncodeMessage builds the frame body for a message without a body.
func EncodeMessage(typeOf MessageType) []byte {
	buf := make([]byte, BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf, uint16(typeOf))
	return buf
}

type Report struct {
	MessageType     ReportMessageType // 1 byte
	Side            Side              // 1 byte
	Timestamp       uint64            // 8 bytes
	OrderID         uint64            // 8 bytes
	Quantity        uint64            // 8 bytes
	Price           float64           // 8 bytes
	Day             uint32            // 4 bytes
	Ticker          string            // 4 bytes
	UUID            string            // 36 bytes
	CounterpartyLen uint16            // 2 bytes
	ErrStrLen       uint32            // 4 bytes
	Counterparty    string            // n bytes (who the party traded with)
	Err             string            // n bytes
}

const reportFixedHeaderLen = 1 + 1 + 8 + 8 + 8 + 8 + 4 + 4 + 36 + 2 + 4

// Serialize converts the report to be sent on the wire. Lengths are taken
// from the strings themselves.
func (r *Report) Serialize() []byte {
	r.CounterpartyLen = uint16(len(r.Counterparty))
	r.ErrStrLen = uint32(len(r.Err))

	buf := make([]byte, reportFixedHeaderLen+len(r.Counterparty)+len(r.Err))
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[2:10], r.Timestamp)
	binary.BigEndian.PutUint64(buf[10:18], r.OrderID)
	binary.BigEndian.PutUint64(buf[18:26], r.Quantity)
	binary.BigEndian.PutUint64(buf[26:34], math.Float64bits(r.Price))
	binary.BigEndian.PutUint32(buf[34:38], r.Day)

	// copy() truncates strings that are too long and zero pads short ones.
	copy(buf[38:42], r.Ticker)
	copy(buf[42:78], r.UUID)
	binary.BigEndian.PutUint16(buf[78:80], r.CounterpartyLen)
	binary.BigEndian.PutUint32(buf[80:84], r.ErrStrLen)

	offset := reportFixedHeaderLen
	copy(buf[offset:], r.Counterparty)
	offset += int(r.CounterpartyLen)
	copy(buf[offset:], r.Err)
	return buf
}

func ParseReport(buf []byte) (Report, error) {
	if len(buf) < reportFixedHeaderLen {
		return Report{}, ErrMessageTooShort
	}
	r := Report{
		MessageType:     ReportMessageType(buf[0]),
		Side:            Side(buf[1]),
		Timestamp:       binary.BigEndian.Uint64(buf[2:10]),
		OrderID:         binary.BigEndian.Uint64(buf[10:18]),
		Quantity:        binary.BigEndian.Uint64(buf[18:26]),
		Price:           math.Float64frombits(binary.BigEndian.Uint64(buf[26:34])),
		Day:             binary.BigEndian.Uint32(buf[34:38]),
		Ticker:          strings.TrimRight(string(buf[38:42]), "\x00"),
		UUID:            strings.TrimRight(string(buf[42:78]), "\x00"),
		CounterpartyLen: binary.BigEndian.Uint16(buf[78:80]),
		ErrStrLen:       binary.BigEndian.Uint32(buf[80:84]),
	}

	offset := reportFixedHeaderLen
	if len(buf) < offset+int(r.CounterpartyLen)+int(r.ErrStrLen) {
		return Report{}, fmt.Errorf("%w: report strings", ErrMessageTooShort)
	}
	r.Counterparty = string(buf[offset : offset+int(r.CounterpartyLen)])
	offset += int(r.CounterpartyLen)
	r.Err = string(buf[offset : offset+int(r.ErrStrLen)])
	return r, nil
}

// WriteFrame writes a length prefixed frame.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, frameHeaderLen+len(body))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(body)))
	copy(buf[4:], body)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length prefixed frame.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
