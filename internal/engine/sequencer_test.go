package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	. "bourse/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

func startTestSequencer(t *testing.T) (*Sequencer, *tomb.Tomb) {
	t.Helper()
	var tb tomb.Tomb
	seq := NewSequencer(createTestExchange())
	seq.Start(&tb)
	t.Cleanup(func() {
		tb.Kill(nil)
		_ = tb.Wait()
	})
	return seq, &tb
}

func TestSequencer_SubmitAndAdvance(t *testing.T) {
	seq, _ := startTestSequencer(t)
	ctx := context.Background()

	outcome, err := seq.Submit(ctx, limitOrder(1, Buy, "IBM", 102.93))
	require.NoError(t, err)
	assert.False(t, outcome.Matched())

	day, err := seq.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, day)

	outcome, err = seq.Submit(ctx, marketOrder(2, Sell, "IBM"))
	require.NoError(t, err)
	require.Len(t, outcome.Agreements, 1)
	assert.Equal(t, 2, outcome.Agreements[0].Date)
}

func TestSequencer_ConcurrentSubmissions(t *testing.T) {
	seq, _ := startTestSequencer(t)
	ctx := context.Background()

	const pairs = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		matched int
	)
	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func(id OrderID) {
			defer wg.Done()
			outcome, err := seq.Submit(ctx, limitOrder(id, Buy, "IBM", 100))
			assert.NoError(t, err)
			mu.Lock()
			matched += len(outcome.Agreements)
			mu.Unlock()
		}(OrderID(2*i + 1))
		go func(id OrderID) {
			defer wg.Done()
			outcome, err := seq.Submit(ctx, limitOrder(id, Sell, "IBM", 100))
			assert.NoError(t, err)
			mu.Lock()
			matched += len(outcome.Agreements)
			mu.Unlock()
		}(OrderID(2*i + 2))
	}
	wg.Wait()

	// Every buy crosses every sell at the same price, so whatever the
	// interleaving all orders pair off.
	assert.Equal(t, pairs, matched)
}

func TestSequencer_Stopped(t *testing.T) {
	seq, tb := startTestSequencer(t)
	tb.Kill(nil)
	require.NoError(t, tb.Wait())

	_, err := seq.Submit(context.Background(), limitOrder(1, Buy, "IBM", 100))
	assert.ErrorIs(t, err, ErrSequencerStopped)
}

func TestSequencer_ContextCancelled(t *testing.T) {
	seq := NewSequencer(createTestExchange())
	// Not started: nothing drains requests beyond the buffer, so a
	// cancelled context must win.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := seq.Submit(ctx, limitOrder(1, Buy, "IBM", 100))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
