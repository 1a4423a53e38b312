package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bourse/internal/common"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	agreement := common.Agreement{
		UUID: "6f1c", Buyer: "CLIENT1", Seller: "CLIENT2", Ticker: "IBM",
		Quantity: 100, Price: 102.93, Date: 1, BuyOrderID: 1, SellOrderID: 2,
	}
	require.NoError(t, p.Publish(context.Background(), []common.Agreement{agreement}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("6f1c"), w.msgs[0].Key)

	var decoded common.Agreement
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, agreement, decoded)

	require.NoError(t, p.Publish(context.Background(), nil))
	assert.Len(t, w.msgs, 1)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_Error(t *testing.T) {
	broken := errors.New("broker unavailable")
	p := &KafkaPublisher{writer: &recordingWriter{err: broken}}
	err := p.Publish(context.Background(), []common.Agreement{{UUID: "a"}})
	assert.ErrorIs(t, err, broken)
}

func TestDiscard(t *testing.T) {
	var sink Sink = Discard{}
	assert.NoError(t, sink.Publish(context.Background(), []common.Agreement{{UUID: "a"}}))
	assert.NoError(t, sink.Close())
}
