package engine

import (
	"context"
	"errors"

	"bourse/internal/common"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const requestChanSize = 100

var ErrSequencerStopped = errors.New("sequencer stopped")

type request struct {
	order    common.Order
	advance  bool
	response chan response
}

type response struct {
	outcome Outcome
	day     int
}

// Sequencer serializes access to one Exchange. Every submission, cascade
// included, runs to completion on a single worker before the next starts.
type Sequencer struct {
	exchange *Exchange
	requests chan request
	dying    <-chan struct{}
}

func NewSequencer(exchange *Exchange) *Sequencer {
	return &Sequencer{
		exchange: exchange,
		requests: make(chan request, requestChanSize),
	}
}

// Start runs the worker under t. The worker exits when t starts dying.
func (s *Sequencer) Start(t *tomb.Tomb) {
	s.dying = t.Dying()
	t.Go(func() error {
		return s.run(t)
	})
}

func (s *Sequencer) run(t *tomb.Tomb) error {
	log.Info().Msg("sequencer running")
	for {
		select {
		case <-t.Dying():
			log.Info().Msg("sequencer stopping")
			return nil
		case req := <-s.requests:
			var resp response
			if req.advance {
				resp.day = s.exchange.AdvanceDay()
			} else {
				resp.outcome = s.exchange.Submit(req.order)
				resp.day = s.exchange.Day()
			}
			req.response <- resp
		}
	}
}

// Submit hands the order to the worker and waits for its outcome.
func (s *Sequencer) Submit(ctx context.Context, order common.Order) (Outcome, error) {
	resp, err := s.do(ctx, request{order: order})
	return resp.outcome, err
}

// AdvanceDay moves the exchange onto the next trading day.
func (s *Sequencer) AdvanceDay(ctx context.Context) (int, error) {
	resp, err := s.do(ctx, request{advance: true})
	return resp.day, err
}

func (s *Sequencer) do(ctx context.Context, req request) (response, error) {
	req.response = make(chan response, 1)
	select {
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-s.dying:
		return response{}, ErrSequencerStopped
	case s.requests <- req:
	}

	select {
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-s.dying:
		return response{}, ErrSequencerStopped
	case resp := <-req.response:
		return resp, nil
	}
}
